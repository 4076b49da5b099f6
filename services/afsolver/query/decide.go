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
	"context"
	"fmt"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/encoding"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
	"github.com/AleutianAI/afsolver/services/afsolver/search"
)

// Credulous decides whether a belongs to some extension of sem.
//
// Description:
//
//	Complete and preferred share one oracle call: a is in some preferred
//	extension exactly when it is in some complete one. With cert set, the
//	complete witness is grown into a preferred extension containing a.
//	Semi-stable and stage ask the question inside each maximal range class
//	until one answers yes.
//
// Outputs:
//
//	bool - The answer.
//	af.Extension - Witness containing a, when the answer is yes.
//	bool - Whether a witness is returned.
//	error - Oracle errors.
func (d *Dispatcher) Credulous(ctx context.Context, sem Semantics, a af.Argument, cert bool) (bool, af.Extension, bool, error) {
	switch sem {
	case Grounded, Ideal:
		ext, _, err := d.ComputeOne(ctx, sem)
		if err != nil {
			return false, nil, false, err
		}
		ok := ext.Contains(a)
		return ok, ext, ok, nil
	}

	in, err := d.base.Lit(search.TargetIn, a)
	if err != nil {
		return false, nil, false, err
	}
	s := d.base.Scope()
	defer s.Close()

	switch sem {
	case Complete, Stable:
		p := encoding.ProfileComplete
		if sem == Stable {
			p = encoding.ProfileStable
		}
		m, ok, err := s.Find(ctx, p, in)
		return ok, m.In, ok, err

	case Preferred:
		m, ok, err := s.Find(ctx, encoding.ProfileComplete, in)
		if err != nil || !ok || !cert {
			return ok, m.In, ok, err
		}
		m, err = d.improve(ctx, s, "preferred witness", search.Extremal{
			Profile:   encoding.ProfileComplete,
			Target:    search.TargetIn,
			Direction: search.Maximize,
			Assume:    []sat.Lit{in},
		}, m)
		return true, m.In, err == nil, err

	case SemiStable, Stage:
		var witness af.Extension
		found := false
		err := s.RangeClasses(ctx, rangeProfile(sem), func(ctx context.Context, c *search.Class) (bool, error) {
			if c.Seed.In.Contains(a) {
				found, witness = true, c.Seed.In
				return false, nil
			}
			m, ok, err := c.Find(ctx, rangeProfile(sem), in)
			if ok {
				found, witness = true, m.In
			}
			return !ok, err
		})
		return found, witness, found, err
	}
	return false, nil, false, fmt.Errorf("%w: DC-%s", ErrUnsupportedQuery, sem.Code())
}

// Skeptical decides whether a belongs to every extension of sem.
//
// Description:
//
//	Grounded and complete reduce to grounded membership, ideal to ideal
//	membership. Stable is one oracle call for a stable extension without
//	a; with no stable extensions at all the answer is vacuously yes.
//	Preferred runs a counterexample loop: find a complete extension
//	without a that no known preferred extension covers, grow it to a
//	preferred extension, and stop if that one excludes a. Semi-stable and
//	stage look for a model without a inside each maximal range class.
//
// Outputs:
//
//	bool - The answer.
//	af.Extension - Counterexample excluding a, when the answer is no.
//	bool - Whether a counterexample is returned.
//	error - Oracle errors.
func (d *Dispatcher) Skeptical(ctx context.Context, sem Semantics, a af.Argument, cert bool) (bool, af.Extension, bool, error) {
	switch sem {
	case Grounded, Complete, Ideal:
		target := sem
		if target == Complete {
			target = Grounded
		}
		ext, _, err := d.ComputeOne(ctx, target)
		if err != nil {
			return false, nil, false, err
		}
		ok := ext.Contains(a)
		return ok, ext, !ok, nil
	}

	in, err := d.base.Lit(search.TargetIn, a)
	if err != nil {
		return false, nil, false, err
	}
	s := d.base.Scope()
	defer s.Close()

	switch sem {
	case Stable:
		m, ok, err := s.Find(ctx, encoding.ProfileStable, in.Not())
		return !ok, m.In, ok, err

	case Preferred:
		return d.skepticalPreferred(ctx, s, a, in)

	case SemiStable, Stage:
		var witness af.Extension
		found := false
		err := s.RangeClasses(ctx, rangeProfile(sem), func(ctx context.Context, c *search.Class) (bool, error) {
			if !c.Seed.In.Contains(a) {
				found, witness = true, c.Seed.In
				return false, nil
			}
			m, ok, err := c.Find(ctx, rangeProfile(sem), in.Not())
			if ok {
				found, witness = true, m.In
			}
			return !ok, err
		})
		return !found, witness, found, err
	}
	return false, nil, false, fmt.Errorf("%w: DS-%s", ErrUnsupportedQuery, sem.Code())
}

func (d *Dispatcher) skepticalPreferred(ctx context.Context, s *search.Scope, a af.Argument, in sat.Lit) (bool, af.Extension, bool, error) {
	for {
		seed, ok, err := s.Find(ctx, encoding.ProfileComplete, in.Not())
		if err != nil {
			return false, nil, false, err
		}
		if !ok {
			return true, nil, false, nil
		}
		// The blocks below are upward closed, so growing the seed stays
		// inside the search space.
		m, err := d.improve(ctx, s, "preferred counterexample", search.Extremal{
			Profile:   encoding.ProfileComplete,
			Target:    search.TargetIn,
			Direction: search.Maximize,
		}, seed)
		if err != nil {
			return false, nil, false, err
		}
		if !m.In.Contains(a) {
			return false, m.In, true, nil
		}
		if err := s.BlockSubsets(search.TargetIn, m.In); err != nil {
			return false, nil, false, err
		}
	}
}
