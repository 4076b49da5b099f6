// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package format

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
)

// TestRead_ICCMA23 verifies header, comments, and attack parsing.
func TestRead_ICCMA23(t *testing.T) {
	in := "# a comment\np af 4\n1 2\n\n2 3\n# trailing\n3 1\n2 3\n"
	f, err := Read(strings.NewReader(in), ICCMA23)
	require.NoError(t, err)

	assert.Equal(t, []af.Argument{"1", "2", "3", "4"}, f.Arguments())
	assert.Equal(t, 3, f.NumAttacks())
	assert.True(t, f.HasAttack("3", "1"))
	assert.Empty(t, f.Attackers("4"))
}

// TestRead_ICCMA23_Errors verifies malformed input is rejected with a line
// number.
func TestRead_ICCMA23_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"missing header", "1 2\n", 1},
		{"bad count", "p af x\n", 1},
		{"wrong arity", "p af 2\n1 2 3\n", 2},
		{"out of range", "p af 2\n1 3\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in), ICCMA23)
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line)
		})
	}

	_, err := Read(strings.NewReader("# only comments\n"), ICCMA23)
	assert.ErrorIs(t, err, ErrParse)

	_, err = Read(strings.NewReader("p af 2\n1 3\n"), ICCMA23)
	assert.ErrorIs(t, err, af.ErrMalformedFramework)
}

// TestRead_APX verifies facts, forward references, and comments.
func TestRead_APX(t *testing.T) {
	in := "% apx\natt(a,b).\narg(a).\narg(b).\narg( c ).\natt(c, c).\narg(a).\n"
	f, err := Read(strings.NewReader(in), APX)
	require.NoError(t, err)

	assert.Equal(t, []af.Argument{"a", "b", "c"}, f.Arguments())
	assert.True(t, f.HasAttack("a", "b"))
	assert.True(t, f.HasAttack("c", "c"))

	_, err = Read(strings.NewReader("arg(a).\natt(a,z).\n"), APX)
	assert.ErrorIs(t, err, af.ErrMalformedFramework)

	_, err = Read(strings.NewReader("arg(a)\nfoo\n"), APX)
	assert.ErrorIs(t, err, ErrParse)

	_, err = Read(strings.NewReader("att(a).\n"), APX)
	assert.ErrorIs(t, err, ErrParse)

	_, err = Read(strings.NewReader(""), "tgf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

// TestWrite_RoundTrip verifies Write output parses back to the same
// framework.
func TestWrite_RoundTrip(t *testing.T) {
	f, err := af.Build([]af.Argument{"1", "2", "3"}, []af.Attack{{From: "1", To: "2"}, {From: "3", To: "3"}})
	require.NoError(t, err)

	for _, format := range []Format{ICCMA23, APX} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, f, format))
		back, err := Read(&buf, format)
		require.NoError(t, err, format)
		assert.Equal(t, f.Arguments(), back.Arguments())
		assert.Equal(t, f.Attacks(), back.Attacks())
	}

	named, err := af.Build([]af.Argument{"x", "y"}, []af.Attack{{From: "y", To: "x"}})
	require.NoError(t, err)
	assert.ErrorIs(t, Write(&bytes.Buffer{}, named, ICCMA23), ErrUnsupportedLabels)

	numbered, labels, err := Renumber(named)
	require.NoError(t, err)
	assert.True(t, numbered.HasAttack("2", "1"))
	assert.Equal(t, af.Argument("y"), labels["2"])
	require.NoError(t, Write(&bytes.Buffer{}, numbered, ICCMA23))
}

// TestFormatDetection verifies extension and name handling.
func TestFormatDetection(t *testing.T) {
	assert.Equal(t, APX, Detect("x/inst.APX"))
	assert.Equal(t, ICCMA23, Detect("x/inst.af"))
	assert.Equal(t, ICCMA23, Detect("x/inst"))

	f, err := ParseFormat(" APX ")
	require.NoError(t, err)
	assert.Equal(t, APX, f)
	_, err = ParseFormat("tgf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

// TestWriteResult verifies answer rendering for every task.
func TestWriteResult(t *testing.T) {
	ext := af.Extension{"1", "3"}
	tests := []struct {
		name   string
		format Format
		res    query.Result
		want   string
	}{
		{"se iccma", ICCMA23, query.Result{Query: query.Query{Task: query.ComputeOne}, Found: true, Extension: ext}, "w 1 3\n"},
		{"se empty", ICCMA23, query.Result{Query: query.Query{Task: query.ComputeOne}, Found: true}, "w\n"},
		{"se none", ICCMA23, query.Result{Query: query.Query{Task: query.ComputeOne}}, "NO\n"},
		{"se apx", APX, query.Result{Query: query.Query{Task: query.ComputeOne}, Found: true, Extension: ext}, "[1,3]\n"},
		{"ee iccma", ICCMA23, query.Result{Query: query.Query{Task: query.EnumerateAll}, Extensions: []af.Extension{ext, {"2"}}}, "w 1 3\nw 2\n"},
		{"ee none", ICCMA23, query.Result{Query: query.Query{Task: query.EnumerateAll}}, "NO\n"},
		{"ee apx", APX, query.Result{Query: query.Query{Task: query.EnumerateAll}, Extensions: []af.Extension{ext, {}}}, "[[1,3],[]]\n"},
		{"dc yes", ICCMA23, query.Result{Query: query.Query{Task: query.DecideCredulous}, Accepted: true, Witness: ext, HasWitness: true}, "YES\n"},
		{"dc cert", ICCMA23, query.Result{Query: query.Query{Task: query.DecideCredulous, Certificate: true}, Accepted: true, Witness: ext, HasWitness: true}, "YES\nw 1 3\n"},
		{"ds no cert apx", APX, query.Result{Query: query.Query{Task: query.DecideSkeptical, Certificate: true}, Witness: ext, HasWitness: true}, "NO\n[1,3]\n"},
		{"ds yes no witness", ICCMA23, query.Result{Query: query.Query{Task: query.DecideSkeptical, Certificate: true}, Accepted: true}, "YES\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteResult(&buf, tt.format, tt.res))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

// TestScript verifies script decoding and step validation.
func TestScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	body := "framework: base.af\ncertificate: true\nsteps:\n" +
		"  - query: DC-PR\n    argument: \"3\"\n" +
		"  - mutations: [\"+att 1 3\", \"-arg 2\"]\n" +
		"  - query: SE-GR\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "base.af"), s.Framework)
	format, err := s.FrameworkFormat()
	require.NoError(t, err)
	assert.Equal(t, ICCMA23, format)

	actions, err := s.Actions()
	require.NoError(t, err)
	require.Len(t, actions, 3)
	require.NotNil(t, actions[0].Query)
	assert.Equal(t, "DC-PR", actions[0].Query.Problem())
	assert.Equal(t, af.Argument("3"), actions[0].Query.Argument)
	assert.True(t, actions[0].Query.Certificate)
	assert.Equal(t, session.Batch{session.AddAttack("1", "3"), session.RemoveArgument("2")}, actions[1].Batch)
	assert.Nil(t, actions[1].Query)

	bad := []string{
		"",
		"steps: []\n",
		"framework: a.af\nsteps:\n  - query: DC-PR\n",
		"framework: a.af\nsteps:\n  - query: SE-GR\n    mutations: [\"+arg x\"]\n",
		"framework: a.af\nsteps:\n  - {}\n",
		"framework: a.af\nsteps:\n  - mutations: [\"*arg x\"]\n",
		"framework: a.af\nunknown: 1\n",
	}
	for _, in := range bad {
		_, err := ReadScript(strings.NewReader(in))
		assert.Error(t, err, in)
	}
}

// TestDiff verifies the computed batch turns one framework into another.
func TestDiff(t *testing.T) {
	old, err := af.Build([]af.Argument{"a", "b", "c"}, []af.Attack{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "c", To: "a"}})
	require.NoError(t, err)
	next, err := af.Build([]af.Argument{"a", "b", "d"}, []af.Attack{{From: "b", To: "a"}, {From: "d", To: "b"}})
	require.NoError(t, err)

	b := Diff(old, next)
	assert.Equal(t, session.Batch{
		session.RemoveAttack("a", "b"),
		session.RemoveArgument("c"),
		session.AddArgument("d"),
		session.AddAttack("b", "a"),
		session.AddAttack("d", "b"),
	}, b)

	assert.Empty(t, Diff(next, next.Clone()))
}
