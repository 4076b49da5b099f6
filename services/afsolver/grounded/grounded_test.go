// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package grounded

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
)

// TestCompute verifies the grounded labelling on small frameworks.
func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		args     []af.Argument
		attacks  []af.Attack
		want     af.Extension
		rejected af.Extension
	}{
		{
			name: "empty",
			want: af.Extension{},
		},
		{
			name:     "chain reinstates c",
			args:     []af.Argument{"a", "b", "c"},
			attacks:  []af.Attack{{From: "a", To: "b"}, {From: "b", To: "c"}},
			want:     af.Extension{"a", "c"},
			rejected: af.Extension{"b"},
		},
		{
			name:    "mutual attack",
			args:    []af.Argument{"a", "b"},
			attacks: []af.Attack{{From: "a", To: "b"}, {From: "b", To: "a"}},
			want:    af.Extension{},
		},
		{
			name:     "self attack is rejected by unattacked attacker",
			args:     []af.Argument{"a", "b", "c"},
			attacks:  []af.Attack{{From: "a", To: "b"}, {From: "b", To: "b"}, {From: "b", To: "c"}},
			want:     af.Extension{"a", "c"},
			rejected: af.Extension{"b"},
		},
		{
			name:    "odd cycle",
			args:    []af.Argument{"a", "b", "c", "d"},
			attacks: []af.Attack{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "c", To: "a"}, {From: "c", To: "d"}},
			want:    af.Extension{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := af.Build(tt.args, tt.attacks)
			require.NoError(t, err)

			res, err := Compute(context.Background(), f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Extension)
			if tt.rejected == nil {
				tt.rejected = af.Extension{}
			}
			assert.Equal(t, tt.rejected, res.Rejected)
			assert.True(t, f.IsComplete(res.Extension))
		})
	}
}

// TestCompute_Labels checks the labelling and wave count on a long chain.
func TestCompute_Labels(t *testing.T) {
	f, err := af.Build(
		[]af.Argument{"1", "2", "3", "4", "5"},
		[]af.Attack{{From: "1", To: "2"}, {From: "2", To: "3"}, {From: "3", To: "4"}, {From: "4", To: "5"}})
	require.NoError(t, err)

	res, err := Compute(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, af.Extension{"1", "3", "5"}, res.Extension)
	assert.Equal(t, 3, res.Rounds)
	assert.Equal(t, Accepted, res.Label("3"))
	assert.Equal(t, Rejected, res.Label("4"))
	assert.Equal(t, "out", res.Label("2").String())
}

// TestCompute_Cancelled verifies cancellation is honoured.
func TestCompute_Cancelled(t *testing.T) {
	f, err := af.Build([]af.Argument{"a"}, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Compute(ctx, f)
	assert.ErrorIs(t, err, context.Canceled)
}
