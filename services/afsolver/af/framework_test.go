// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package af

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, args []Argument, attacks []Attack) *Framework {
	t.Helper()
	f, err := Build(args, attacks)
	require.NoError(t, err)
	return f
}

// TestFramework_AddRemove verifies basic mutation and canonical ordering.
func TestFramework_AddRemove(t *testing.T) {
	f := mustBuild(t, []Argument{"a", "b", "c"}, []Attack{{"a", "b"}, {"b", "c"}, {"c", "c"}})

	assert.Equal(t, 3, f.Len())
	assert.Equal(t, 3, f.NumAttacks())
	assert.Equal(t, []Argument{"a", "b", "c"}, f.Arguments())
	assert.Equal(t, []Argument{"b", "c"}, f.Attackers("c"))
	assert.Equal(t, []Argument{"c"}, f.Targets("b"))
	require.NoError(t, f.Validate())

	removed, err := f.RemoveArgument("c")
	require.NoError(t, err)
	assert.ElementsMatch(t, []Attack{{"b", "c"}, {"c", "c"}}, removed)
	assert.Equal(t, 1, f.NumAttacks())
	assert.Empty(t, f.Targets("b"))
	require.NoError(t, f.Validate())

	// Re-added arguments move to the end of the canonical order.
	require.NoError(t, f.AddArgument("c"))
	require.NoError(t, f.RemoveAttack("a", "b"))
	_, err = f.RemoveArgument("a")
	require.NoError(t, err)
	require.NoError(t, f.AddArgument("a"))
	assert.Equal(t, []Argument{"b", "c", "a"}, f.Arguments())
	assert.True(t, f.Less("c", "a"))
}

// TestFramework_Malformed verifies every malformed mutation is rejected
// without changing the framework.
func TestFramework_Malformed(t *testing.T) {
	f := mustBuild(t, []Argument{"a", "b"}, []Attack{{"a", "b"}})

	tests := []struct {
		name string
		op   func() error
	}{
		{"empty argument", func() error { return f.AddArgument("") }},
		{"duplicate argument", func() error { return f.AddArgument("a") }},
		{"unknown attacker", func() error { return f.AddAttack("x", "a") }},
		{"unknown target", func() error { return f.AddAttack("a", "x") }},
		{"duplicate attack", func() error { return f.AddAttack("a", "b") }},
		{"unknown attack", func() error { return f.RemoveAttack("b", "a") }},
		{"remove unknown argument", func() error {
			_, err := f.RemoveArgument("x")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedFramework)
		})
	}
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 1, f.NumAttacks())
}

// TestFramework_Clone verifies the clone is independent of the original.
func TestFramework_Clone(t *testing.T) {
	f := mustBuild(t, []Argument{"a", "b"}, []Attack{{"a", "b"}})
	c := f.Clone()

	_, err := c.RemoveArgument("a")
	require.NoError(t, err)

	assert.True(t, f.HasAttack("a", "b"))
	assert.False(t, c.HasArgument("a"))
	assert.Equal(t, []Attack{{"a", "b"}}, f.Attacks())
	require.NoError(t, c.Validate())
}

// TestFramework_Properties checks the direct semantic property checkers on
// a small reinstatement chain.
func TestFramework_Properties(t *testing.T) {
	// a -> b -> c, and a mutual attack d <-> e.
	f := mustBuild(t,
		[]Argument{"a", "b", "c", "d", "e"},
		[]Attack{{"a", "b"}, {"b", "c"}, {"d", "e"}, {"e", "d"}})

	ac := Extension{"a", "c"}
	assert.True(t, f.IsConflictFree(ac))
	assert.True(t, f.IsAdmissible(ac))
	assert.True(t, f.IsComplete(ac))
	assert.False(t, f.IsStable(ac))
	assert.Equal(t, Extension{"a", "b", "c"}, f.Range(ac))

	acd := Extension{"a", "c", "d"}
	assert.True(t, f.IsComplete(acd))
	assert.True(t, f.IsStable(acd))

	assert.False(t, f.IsConflictFree(Extension{"d", "e"}))
	assert.False(t, f.IsAdmissible(Extension{"c"}))
	assert.False(t, f.IsComplete(Extension{}))
	assert.True(t, f.Defends(Extension{"a"}, "c"))
}

// TestExtension_SetOps checks order-independent comparisons.
func TestExtension_SetOps(t *testing.T) {
	e := Extension{"b", "a"}
	assert.True(t, e.Equal(Extension{"a", "b"}))
	assert.True(t, Extension{"a"}.SubsetOf(e))
	assert.False(t, e.SubsetOf(Extension{"a"}))
	assert.Equal(t, Extension{"a", "b"}.Key(), e.Key())
	assert.Equal(t, "{b, a}", e.String())
	assert.True(t, e.Contains("a"))
}
