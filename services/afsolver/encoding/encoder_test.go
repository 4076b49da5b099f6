// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package encoding

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
)

// models enumerates every model of profile p by blocking exact in-sets.
func models(t *testing.T, o sat.Oracle, e *Encoder, f *af.Framework, p Profile) []string {
	t.Helper()
	ctx := context.Background()
	var keys []string
	for i := 0; i < 1<<uint(f.Len())+1; i++ {
		assumptions, err := e.Assumptions(f, p)
		require.NoError(t, err)
		st, err := o.Solve(ctx, assumptions)
		require.NoError(t, err)
		if st == sat.Unsatisfiable {
			sort.Strings(keys)
			return keys
		}
		ext := e.Extension(f, o)
		keys = append(keys, ext.Key())

		members := ext.Set()
		block := make([]sat.Lit, 0, f.Len())
		for _, a := range f.Arguments() {
			v, _ := e.Mapper().Lookup(a)
			if _, in := members[a]; in {
				block = append(block, v.In.Not())
			} else {
				block = append(block, v.In)
			}
		}
		require.NoError(t, o.AddClause(block...))
	}
	t.Fatalf("enumeration of %s did not terminate", p)
	return nil
}

// bruteForce returns the in-sets satisfying pred over all subsets of f.
func bruteForce(f *af.Framework, pred func(af.Extension) bool) []string {
	args := f.Arguments()
	var keys []string
	for mask := 0; mask < 1<<uint(len(args)); mask++ {
		var ext af.Extension
		for i, a := range args {
			if mask&(1<<uint(i)) != 0 {
				ext = append(ext, a)
			}
		}
		if pred(ext) {
			keys = append(keys, ext.Key())
		}
	}
	sort.Strings(keys)
	return keys
}

func testFrameworks(t *testing.T) map[string]*af.Framework {
	t.Helper()
	build := func(args []af.Argument, attacks []af.Attack) *af.Framework {
		f, err := af.Build(args, attacks)
		require.NoError(t, err)
		return f
	}
	return map[string]*af.Framework{
		"mutual":    build([]af.Argument{"a", "b"}, []af.Attack{{From: "a", To: "b"}, {From: "b", To: "a"}}),
		"chain":     build([]af.Argument{"a", "b", "c"}, []af.Attack{{From: "a", To: "b"}, {From: "b", To: "c"}}),
		"odd cycle": build([]af.Argument{"a", "b", "c"}, []af.Attack{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "c", To: "a"}}),
		"self":      build([]af.Argument{"a", "b"}, []af.Attack{{From: "a", To: "a"}, {From: "a", To: "b"}}),
		"isolated":  build([]af.Argument{"a"}, nil),
		"floating": build([]af.Argument{"a", "b", "c", "d"},
			[]af.Attack{{From: "a", To: "b"}, {From: "b", To: "a"}, {From: "a", To: "c"}, {From: "b", To: "c"}, {From: "c", To: "d"}}),
	}
}

// TestEncoder_ProfilesMatchBruteForce verifies every profile's models are
// exactly the sets with the corresponding property.
func TestEncoder_ProfilesMatchBruteForce(t *testing.T) {
	for name, f := range testFrameworks(t) {
		for _, tc := range []struct {
			p    Profile
			pred func(af.Extension) bool
		}{
			{ProfileConflictFree, f.IsConflictFree},
			{ProfileAdmissible, f.IsAdmissible},
			{ProfileComplete, f.IsComplete},
			{ProfileStable, f.IsStable},
		} {
			t.Run(name+"/"+tc.p.String(), func(t *testing.T) {
				o := sat.NewGini(time.Millisecond)
				e := NewEncoder(o)
				groups, err := e.Encode(f)
				require.NoError(t, err)
				assert.Equal(t, f.Len(), groups)

				assert.Equal(t, bruteForce(f, tc.pred), models(t, o, e, f, tc.p))
			})
		}
	}
}

// TestEncoder_RangeDecoding verifies the range literal matches the range
// of the decoded extension.
func TestEncoder_RangeDecoding(t *testing.T) {
	f := testFrameworks(t)["chain"]
	o := sat.NewGophersat()
	e := NewEncoder(o)
	_, err := e.Encode(f)
	require.NoError(t, err)

	assumptions, err := e.Assumptions(f, ProfileStable)
	require.NoError(t, err)
	st, err := o.Solve(context.Background(), assumptions)
	require.NoError(t, err)
	require.Equal(t, sat.Satisfiable, st)

	ext := e.Extension(f, o)
	assert.Equal(t, af.Extension{"a", "c"}, ext)
	assert.Equal(t, f.Range(ext), e.RangeOf(f, o))
}

// TestEncoder_IncrementalUpdate verifies that invalidating and retiring
// groups yields the same models as a fresh encoding of the mutated
// framework.
func TestEncoder_IncrementalUpdate(t *testing.T) {
	f := testFrameworks(t)["chain"].Clone()
	o := sat.NewGini(time.Millisecond)
	e := NewEncoder(o)
	_, err := e.Encode(f)
	require.NoError(t, err)
	before := e.Mapper().Allocated()

	// Remove b, add c -> a and a fresh argument d attacking c.
	_, err = f.RemoveArgument("b")
	require.NoError(t, err)
	require.NoError(t, e.Retire("b"))
	require.NoError(t, f.AddAttack("c", "a"))
	require.NoError(t, e.Invalidate("a"))
	require.NoError(t, e.Invalidate("c"))
	require.NoError(t, f.AddArgument("d"))
	require.NoError(t, f.AddAttack("d", "c"))

	groups, err := e.Encode(f)
	require.NoError(t, err)
	assert.Equal(t, 3, groups)
	assert.Equal(t, 1, e.Mapper().Retired())
	assert.Equal(t, 1, e.Mapper().Generation("a"))
	assert.Equal(t, before+2+4, e.Mapper().Allocated())

	assert.Equal(t, bruteForce(f, f.IsComplete), models(t, o, e, f, ProfileComplete))
}

// TestEncoder_Errors covers unmapped arguments.
func TestEncoder_Errors(t *testing.T) {
	f := testFrameworks(t)["mutual"]
	e := NewEncoder(sat.NewGophersat())

	_, err := e.Assumptions(f, ProfileComplete)
	assert.ErrorIs(t, err, ErrUnmapped)
	assert.ErrorIs(t, e.Retire("a"), ErrUnmapped)
	assert.ErrorIs(t, e.Invalidate("zz"), ErrUnmapped)

	_, err = e.Mapper().In("a")
	assert.ErrorIs(t, err, ErrUnmapped)
}
