// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sat

import "strconv"

// Lit is a DIMACS literal: a positive or negative variable number.
type Lit int

// Not returns the complementary literal.
func (l Lit) Not() Lit {
	return -l
}

// Var returns the variable number of l.
func (l Lit) Var() int {
	if l < 0 {
		return int(-l)
	}
	return int(l)
}

// IsPos reports whether l is a positive literal.
func (l Lit) IsPos() bool {
	return l > 0
}

// String returns the DIMACS rendering of l.
func (l Lit) String() string {
	return strconv.Itoa(int(l))
}

// Status is the outcome of a solve call.
type Status int

const (
	// Unknown means the call did not finish.
	Unknown Status = iota

	// Satisfiable means a model exists under the given assumptions.
	Satisfiable

	// Unsatisfiable means no model exists under the given assumptions.
	Unsatisfiable
)

var statusNames = map[Status]string{
	Unknown:       "unknown",
	Satisfiable:   "sat",
	Unsatisfiable: "unsat",
}

// String returns the status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// checkClause validates lits against the allocated variable range.
func checkClause(lits []Lit, maxVar int) error {
	if len(lits) == 0 {
		return ErrEmptyClause
	}
	return checkLits(lits, maxVar)
}

func checkLits(lits []Lit, maxVar int) error {
	for _, l := range lits {
		if l == 0 || l.Var() > maxVar {
			return &LiteralError{Lit: l, MaxVar: maxVar}
		}
	}
	return nil
}

// LiteralError reports a literal outside the allocated variable range.
type LiteralError struct {
	Lit    Lit
	MaxVar int
}

// Error implements error.
func (e *LiteralError) Error() string {
	return "literal " + e.Lit.String() + " outside allocated range 1.." + strconv.Itoa(e.MaxVar)
}

// Unwrap returns ErrUnknownLiteral.
func (e *LiteralError) Unwrap() error {
	return ErrUnknownLiteral
}
