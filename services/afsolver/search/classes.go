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
	"errors"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/encoding"
)

// Class is one subset-maximal range class: the models whose range is
// exactly Range. The embedded scope is pinned to that range.
type Class struct {
	*Scope

	// Range is the class's range.
	Range af.Extension

	// Seed is a model of the class found while maximizing.
	Seed Model
}

// RangeClasses visits every subset-maximal range of profile p in turn.
//
// Description:
//
//	The visitor may solve inside the class scope; anything it adds there
//	is discarded after the visit. Returning false stops the iteration.
//
// Inputs:
//
//	ctx - Cancellation for every oracle call.
//	p - ProfileComplete for semi-stable, ProfileConflictFree for stage.
//	visit - Called once per class.
//
// Outputs:
//
//	error - Oracle or visitor errors.
func (s *Scope) RangeClasses(ctx context.Context, p encoding.Profile, visit func(ctx context.Context, c *Class) (bool, error)) (err error) {
	outer := s.Child()
	defer func() {
		err = errors.Join(err, outer.Close())
	}()

	for {
		m, ok, err := outer.Optimize(ctx, Extremal{
			Profile:   p,
			Target:    TargetRange,
			Direction: Maximize,
		})
		if err != nil || !ok {
			return err
		}

		inner := outer.Child()
		if err := inner.Pin(TargetRange, m.Range); err != nil {
			return err
		}
		cont, verr := visit(ctx, &Class{Scope: inner, Range: m.Range, Seed: m})
		if err := errors.Join(verr, inner.Close()); err != nil {
			return err
		}
		if !cont {
			return nil
		}
		if err := outer.BlockSubsets(TargetRange, m.Range); err != nil {
			return err
		}
	}
}
