// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/encoding"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
)

func newBase(t *testing.T, args []af.Argument, attacks []af.Attack) *Base {
	t.Helper()
	f, err := af.Build(args, attacks)
	require.NoError(t, err)
	o := sat.NewGini(time.Millisecond)
	enc := encoding.NewEncoder(o)
	_, err = enc.Encode(f)
	require.NoError(t, err)
	return NewBase(o, enc, f)
}

func keys(exts []af.Extension) []string {
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = e.Key()
	}
	sort.Strings(out)
	return out
}

// subsets returns every subset of f satisfying pred.
func subsets(f *af.Framework, pred func(af.Extension) bool) []af.Extension {
	args := f.Arguments()
	var out []af.Extension
	for mask := 0; mask < 1<<uint(len(args)); mask++ {
		ext := af.Extension{}
		for i, a := range args {
			if mask&(1<<uint(i)) != 0 {
				ext = append(ext, a)
			}
		}
		if pred(ext) {
			out = append(out, ext)
		}
	}
	return out
}

// maximal keeps the members of exts that are subset-maximal under key.
func maximal(exts []af.Extension, key func(af.Extension) af.Extension) []af.Extension {
	var out []af.Extension
	for _, e := range exts {
		dominated := false
		for _, o := range exts {
			ke, ko := key(e), key(o)
			if len(ko) > len(ke) && ke.SubsetOf(ko) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, e)
		}
	}
	return out
}

var floatingArgs = []af.Argument{"a", "b", "c", "d", "e"}
var floatingAttacks = []af.Attack{
	{From: "a", To: "b"}, {From: "b", To: "a"}, {From: "a", To: "c"}, {From: "b", To: "c"}, {From: "c", To: "d"}, {From: "e", To: "e"},
}

// TestEnumerator_Modes checks every enumeration mode against brute force.
func TestEnumerator_Modes(t *testing.T) {
	ctx := context.Background()
	identity := func(e af.Extension) af.Extension { return e }

	t.Run("complete models", func(t *testing.T) {
		b := newBase(t, floatingArgs, floatingAttacks)
		got, err := b.Enumerate(ModeModels, encoding.ProfileComplete).Collect(ctx)
		require.NoError(t, err)
		assert.Equal(t, keys(subsets(b.f, b.f.IsComplete)), keys(got))
	})

	t.Run("preferred", func(t *testing.T) {
		b := newBase(t, floatingArgs, floatingAttacks)
		got, err := b.Enumerate(ModeMaximal, encoding.ProfileComplete).Collect(ctx)
		require.NoError(t, err)
		want := maximal(subsets(b.f, b.f.IsComplete), identity)
		assert.Equal(t, keys(want), keys(got))
		assert.Len(t, got, 2)
	})

	t.Run("semi-stable", func(t *testing.T) {
		b := newBase(t, floatingArgs, floatingAttacks)
		got, err := b.Enumerate(ModeRange, encoding.ProfileComplete).Collect(ctx)
		require.NoError(t, err)
		want := maximal(subsets(b.f, b.f.IsComplete), b.f.Range)
		assert.Equal(t, keys(want), keys(got))
	})

	t.Run("stage", func(t *testing.T) {
		b := newBase(t, floatingArgs, floatingAttacks)
		got, err := b.Enumerate(ModeRange, encoding.ProfileConflictFree).Collect(ctx)
		require.NoError(t, err)
		want := maximal(subsets(b.f, b.f.IsConflictFree), b.f.Range)
		assert.Equal(t, keys(want), keys(got))
	})

	t.Run("no stable extension", func(t *testing.T) {
		b := newBase(t, []af.Argument{"a"}, []af.Attack{{From: "a", To: "a"}})
		got, err := b.Enumerate(ModeModels, encoding.ProfileStable).Collect(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

// TestEnumerator_ScopesDoNotLeak verifies that blocking clauses of a closed
// enumerator do not affect later solves on the same oracle.
func TestEnumerator_ScopesDoNotLeak(t *testing.T) {
	ctx := context.Background()
	b := newBase(t, floatingArgs, floatingAttacks)

	first := b.Enumerate(ModeModels, encoding.ProfileComplete)
	ext, ok, err := first.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, ext)
	require.NoError(t, first.Close())

	_, _, err = first.Next(ctx)
	assert.ErrorIs(t, err, ErrEnumeratorClosed)

	again, err := b.Enumerate(ModeModels, encoding.ProfileComplete).Collect(ctx)
	require.NoError(t, err)
	assert.Len(t, again, len(subsets(b.f, b.f.IsComplete)))
}

// TestOptimize_Directions checks maximization, minimization and the
// observer hook.
func TestOptimize_Directions(t *testing.T) {
	ctx := context.Background()
	b := newBase(t, floatingArgs, floatingAttacks)
	s := b.Scope()
	defer s.Close()

	m, ok, err := s.Optimize(ctx, Extremal{Profile: encoding.ProfileComplete, Target: TargetIn, Direction: Minimize})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, m.In, "the grounded extension of this framework is empty")

	steps := 0
	m, ok, err = s.Optimize(ctx, Extremal{
		Profile:   encoding.ProfileComplete,
		Target:    TargetIn,
		Direction: Maximize,
		Observer: func(step int, _ Model) bool {
			steps = step
			return true
		},
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, b.f.IsComplete(m.In))
	assert.Len(t, m.In, 2)
	assert.LessOrEqual(t, steps, 2)

	aIn, err := b.Lit(TargetIn, "a")
	require.NoError(t, err)
	m, ok, err = s.Optimize(ctx, Extremal{
		Profile:   encoding.ProfileComplete,
		Target:    TargetIn,
		Direction: Maximize,
		Assume:    []sat.Lit{aIn},
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, af.Extension{"a", "d"}, m.In)
}

// TestRangeClasses visits the maximal ranges of a framework whose two
// semi-stable extensions share one range.
func TestRangeClasses(t *testing.T) {
	ctx := context.Background()
	b := newBase(t, floatingArgs, floatingAttacks)
	s := b.Scope()
	defer s.Close()

	var ranges []af.Extension
	err := s.RangeClasses(ctx, encoding.ProfileComplete, func(ctx context.Context, c *Class) (bool, error) {
		ranges = append(ranges, c.Range)
		assert.Equal(t, c.Range, b.f.Range(c.Seed.In))
		_, ok, err := c.Find(ctx, encoding.ProfileComplete)
		assert.True(t, ok)
		return true, err
	})
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, af.Extension{"a", "b", "c", "d"}, ranges[0])

	// The outer scope's blocks were discarded.
	all, err := b.Enumerate(ModeRange, encoding.ProfileComplete).Collect(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// TestFixed verifies the precomputed enumerator.
func TestFixed(t *testing.T) {
	e := Fixed(af.Extension{"a"})
	got, err := e.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []af.Extension{{"a"}}, got)
	assert.Equal(t, 1, e.Count())
}
