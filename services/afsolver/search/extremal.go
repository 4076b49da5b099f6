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

	"github.com/AleutianAI/afsolver/services/afsolver/encoding"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
)

// Direction selects maximization or minimization.
type Direction int

const (
	// Maximize searches for a subset-maximal target set.
	Maximize Direction = iota

	// Minimize searches for a subset-minimal target set.
	Minimize
)

// Observer is called after every improving step. Returning false stops the
// search with the current model.
type Observer func(step int, m Model) bool

// Extremal describes one extremal search.
type Extremal struct {
	// Profile is the semantics profile models must satisfy.
	Profile encoding.Profile

	// Target is the literal family being optimized.
	Target Target

	// Direction is Maximize or Minimize.
	Direction Direction

	// Assume holds extra assumptions for every call of the search.
	Assume []sat.Lit

	// Observer, if set, sees each improvement.
	Observer Observer
}

// Optimize finds a seed model and improves it to an extremal one.
//
// Description:
//
//	Returns found=false when the profile has no model under the scope and
//	assumptions. Otherwise the returned model's target set is
//	subset-extremal among all such models, unless the observer stopped the
//	search early.
//
// Inputs:
//
//	ctx - Cancellation for every oracle call.
//	req - The search description.
//
// Outputs:
//
//	Model - The extremal model.
//	bool - Whether any model exists.
//	error - Oracle errors; selectors are retired even on error.
func (s *Scope) Optimize(ctx context.Context, req Extremal) (Model, bool, error) {
	seed, ok, err := s.Find(ctx, req.Profile, req.Assume...)
	if err != nil || !ok {
		return Model{}, ok, err
	}
	m, err := s.Improve(ctx, req, seed)
	return m, true, err
}

// Improve runs the improvement loop from seed.
func (s *Scope) Improve(ctx context.Context, req Extremal, seed Model) (Model, error) {
	b := s.base
	cur := seed
	for step := 1; ; step++ {
		chosen := cur.target(req.Target)
		inLits, err := b.lits(req.Target, chosen)
		if err != nil {
			return cur, err
		}
		outLits, err := b.lits(req.Target, b.complement(chosen))
		if err != nil {
			return cur, err
		}

		assume := make([]sat.Lit, 0, len(req.Assume)+len(inLits)+len(outLits)+1)
		assume = append(assume, req.Assume...)
		var grow []sat.Lit
		if req.Direction == Maximize {
			assume = append(assume, inLits...)
			grow = outLits
		} else {
			for _, l := range outLits {
				assume = append(assume, l.Not())
			}
			for _, l := range inLits {
				grow = append(grow, l.Not())
			}
		}
		if len(grow) == 0 {
			return cur, nil
		}

		sel := b.oracle.NewLit()
		clause := make([]sat.Lit, 0, len(grow)+1)
		clause = append(clause, sel.Not())
		clause = append(clause, grow...)
		if err := b.oracle.AddClause(clause...); err != nil {
			return cur, err
		}
		assume = append(assume, sel)

		st, solveErr := s.Solve(ctx, req.Profile, assume...)
		var next Model
		if solveErr == nil && st == sat.Satisfiable {
			next = b.capture()
		}
		if err := b.oracle.AddClause(sel.Not()); err != nil {
			return cur, err
		}
		if solveErr != nil {
			return cur, solveErr
		}
		if st != sat.Satisfiable {
			return cur, nil
		}

		cur = next
		if req.Observer != nil && !req.Observer(step, cur) {
			return cur, nil
		}
	}
}
