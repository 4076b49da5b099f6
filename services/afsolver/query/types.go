// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
)

// Semantics identifies an extension-based semantics.
type Semantics int

const (
	// Grounded is the least complete extension.
	Grounded Semantics = iota

	// Complete extensions are admissible and contain what they defend.
	Complete

	// Stable extensions attack every non-member.
	Stable

	// Preferred extensions are subset-maximal complete extensions.
	Preferred

	// SemiStable extensions are complete with subset-maximal range.
	SemiStable

	// Stage extensions are conflict-free with subset-maximal range.
	Stage

	// Ideal is the maximal admissible set inside every preferred extension.
	Ideal
)

var semanticsCodes = map[Semantics]string{
	Grounded:   "GR",
	Complete:   "CO",
	Stable:     "ST",
	Preferred:  "PR",
	SemiStable: "SST",
	Stage:      "STG",
	Ideal:      "ID",
}

var semanticsNames = map[Semantics]string{
	Grounded:   "grounded",
	Complete:   "complete",
	Stable:     "stable",
	Preferred:  "preferred",
	SemiStable: "semi-stable",
	Stage:      "stage",
	Ideal:      "ideal",
}

// AllSemantics lists every supported semantics.
var AllSemantics = []Semantics{Grounded, Complete, Stable, Preferred, SemiStable, Stage, Ideal}

// Code returns the competition code, e.g. "PR".
func (s Semantics) Code() string {
	if c, ok := semanticsCodes[s]; ok {
		return c
	}
	return fmt.Sprintf("SEM%d", int(s))
}

// String returns the lower-case name.
func (s Semantics) String() string {
	if n, ok := semanticsNames[s]; ok {
		return n
	}
	return s.Code()
}

// ParseSemantics accepts a code ("PR") or a name ("preferred").
func ParseSemantics(v string) (Semantics, error) {
	u := strings.ToUpper(strings.TrimSpace(v))
	l := strings.ToLower(strings.TrimSpace(v))
	for s, c := range semanticsCodes {
		if c == u || semanticsNames[s] == l {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: semantics %q", ErrBadProblem, v)
}

// Task identifies a reasoning task.
type Task int

const (
	// ComputeOne returns one extension, if any exists.
	ComputeOne Task = iota

	// EnumerateAll returns every extension.
	EnumerateAll

	// DecideCredulous asks whether the argument is in some extension.
	DecideCredulous

	// DecideSkeptical asks whether the argument is in every extension.
	DecideSkeptical
)

var taskCodes = map[Task]string{
	ComputeOne:      "SE",
	EnumerateAll:    "EE",
	DecideCredulous: "DC",
	DecideSkeptical: "DS",
}

var taskNames = map[Task]string{
	ComputeOne:      "compute-one",
	EnumerateAll:    "enumerate-all",
	DecideCredulous: "decide-credulous",
	DecideSkeptical: "decide-skeptical",
}

// Code returns the competition code, e.g. "DC".
func (t Task) Code() string {
	if c, ok := taskCodes[t]; ok {
		return c
	}
	return fmt.Sprintf("TASK%d", int(t))
}

// String returns the task name.
func (t Task) String() string {
	if n, ok := taskNames[t]; ok {
		return n
	}
	return t.Code()
}

// IsDecision reports whether the task needs a designated argument.
func (t Task) IsDecision() bool {
	return t == DecideCredulous || t == DecideSkeptical
}

// ParseTask accepts a code ("DS") or a name ("decide-skeptical").
func ParseTask(v string) (Task, error) {
	u := strings.ToUpper(strings.TrimSpace(v))
	l := strings.ToLower(strings.TrimSpace(v))
	for t, c := range taskCodes {
		if c == u || taskNames[t] == l {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: task %q", ErrBadProblem, v)
}

// Query is one reasoning request.
type Query struct {
	Semantics   Semantics   `json:"semantics"`
	Task        Task        `json:"task"`
	Argument    af.Argument `json:"argument,omitempty"`
	Certificate bool        `json:"certificate,omitempty"`
}

// ParseProblem parses a descriptor such as "DC-PR" into a query.
func ParseProblem(problem string) (Query, error) {
	taskCode, semCode, ok := strings.Cut(strings.TrimSpace(problem), "-")
	if !ok {
		return Query{}, fmt.Errorf("%w: %q", ErrBadProblem, problem)
	}
	task, err := ParseTask(taskCode)
	if err != nil {
		return Query{}, err
	}
	sem, err := ParseSemantics(semCode)
	if err != nil {
		return Query{}, err
	}
	return Query{Semantics: sem, Task: task}, nil
}

// Problem returns the descriptor of q, e.g. "DC-PR".
func (q Query) Problem() string {
	return q.Task.Code() + "-" + q.Semantics.Code()
}

// Key identifies the query for result caching.
func (q Query) Key() string {
	return fmt.Sprintf("%s|%s|%t", q.Problem(), q.Argument, q.Certificate)
}

// Validate checks q against f before any oracle work.
func (q Query) Validate(f *af.Framework) error {
	if _, ok := semanticsCodes[q.Semantics]; !ok {
		return fmt.Errorf("%w: semantics %d", ErrUnsupportedQuery, int(q.Semantics))
	}
	if _, ok := taskCodes[q.Task]; !ok {
		return fmt.Errorf("%w: task %d", ErrUnsupportedQuery, int(q.Task))
	}
	if !q.Task.IsDecision() {
		return nil
	}
	if q.Argument == "" {
		return fmt.Errorf("%w: %s needs an argument", ErrUnsupportedQuery, q.Problem())
	}
	if !f.HasArgument(q.Argument) {
		return fmt.Errorf("%w: %q", ErrUnknownArgument, q.Argument)
	}
	return nil
}

// Result is the answer to a Query.
type Result struct {
	Query Query `json:"query"`

	// Found reports whether ComputeOne found an extension.
	Found bool `json:"found"`

	// Extension is the ComputeOne answer.
	Extension af.Extension `json:"extension,omitempty"`

	// Extensions holds every EnumerateAll answer.
	Extensions []af.Extension `json:"extensions,omitempty"`

	// Accepted is the decision answer.
	Accepted bool `json:"accepted"`

	// Witness certifies a positive credulous or negative skeptical answer.
	Witness    af.Extension `json:"witness,omitempty"`
	HasWitness bool         `json:"has_witness"`

	// Cached reports that the answer came from the session result cache.
	Cached bool `json:"cached"`

	Elapsed time.Duration `json:"elapsed"`
}
