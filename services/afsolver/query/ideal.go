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

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/encoding"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
	"github.com/AleutianAI/afsolver/services/afsolver/search"
)

// Ideal returns the ideal extension.
//
// Description:
//
//	Intersects the preferred extensions, stopping early once the
//	intersection shrinks to the grounded extension, then searches the
//	maximal admissible set inside the intersection. Admissible sets inside
//	it are closed under union, so that maximum is unique.
//
// Outputs:
//
//	af.Extension - The ideal extension.
//	error - Oracle errors.
func (d *Dispatcher) Ideal(ctx context.Context) (af.Extension, error) {
	f := d.base.Framework()
	g, err := d.Grounded(ctx)
	if err != nil {
		return nil, err
	}

	inter, err := d.preferredIntersection(ctx, len(g.Extension))
	if err != nil {
		return nil, err
	}
	if len(inter) == len(g.Extension) {
		return g.Extension, nil
	}

	members := inter.Set()
	var assume []sat.Lit
	for _, a := range f.Arguments() {
		if _, ok := members[a]; ok {
			continue
		}
		l, err := d.base.Lit(search.TargetIn, a)
		if err != nil {
			return nil, err
		}
		assume = append(assume, l.Not())
	}

	s := d.base.Scope()
	defer s.Close()
	m, _, err := d.optimize(ctx, s, "ideal", search.Extremal{
		Profile:   encoding.ProfileAdmissible,
		Target:    search.TargetIn,
		Direction: search.Maximize,
		Assume:    assume,
	})
	if err != nil {
		return nil, err
	}
	return m.In, nil
}

// preferredIntersection intersects preferred extensions until exhaustion or
// until the intersection has floor members (the grounded size).
func (d *Dispatcher) preferredIntersection(ctx context.Context, floor int) (af.Extension, error) {
	e := d.base.Enumerate(search.ModeMaximal, encoding.ProfileComplete)
	defer e.Close()

	var inter af.Extension
	first := true
	for {
		ext, ok, err := e.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if first {
			inter, first = ext, false
		} else {
			set := ext.Set()
			kept := inter[:0:0]
			for _, a := range inter {
				if _, in := set[a]; in {
					kept = append(kept, a)
				}
			}
			inter = kept
		}
		if len(inter) <= floor {
			break
		}
	}
	return inter, nil
}
