// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package grounded computes the grounded extension without an oracle.
package grounded

import (
	"context"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
)

// Label is the grounded labelling status of an argument.
type Label int

const (
	// Undecided arguments are neither accepted nor rejected.
	Undecided Label = iota

	// Accepted arguments belong to the grounded extension.
	Accepted

	// Rejected arguments are attacked by the grounded extension.
	Rejected
)

var labelNames = map[Label]string{
	Undecided: "undec",
	Accepted:  "in",
	Rejected:  "out",
}

// String returns the label name.
func (l Label) String() string {
	return labelNames[l]
}

// Result is the grounded labelling of a framework.
type Result struct {
	// Extension is the grounded extension in canonical order.
	Extension af.Extension

	// Rejected lists the arguments attacked by the extension.
	Rejected af.Extension

	// Rounds is the number of propagation waves until the fixpoint.
	Rounds int

	labels map[af.Argument]Label
}

// Label returns the status of a.
func (r Result) Label(a af.Argument) Label {
	return r.labels[a]
}

// Compute returns the grounded labelling of f.
//
// Description:
//
//	Least fixpoint of the characteristic function: accept every argument
//	whose attackers are all rejected, reject everything an accepted argument
//	attacks, and repeat until nothing changes. Each argument keeps a count
//	of attackers not yet rejected, so the whole computation is linear in
//	the size of the framework.
//
// Inputs:
//
//	ctx - Checked between waves.
//	f - The framework.
//
// Outputs:
//
//	Result - The grounded labelling. The empty framework yields an empty
//	         extension.
//	error - ctx.Err() if cancelled.
//
// Thread Safety: Read-only over f.
func Compute(ctx context.Context, f *af.Framework) (Result, error) {
	args := f.Arguments()
	labels := make(map[af.Argument]Label, len(args))
	pending := make(map[af.Argument]int, len(args))

	var wave []af.Argument
	for _, a := range args {
		n := f.NumAttackers(a)
		pending[a] = n
		if n == 0 {
			wave = append(wave, a)
		}
	}

	rounds := 0
	accepted := make(map[af.Argument]struct{})
	rejected := make(map[af.Argument]struct{})
	for len(wave) > 0 {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		rounds++

		var next []af.Argument
		for _, a := range wave {
			if labels[a] != Undecided {
				continue
			}
			labels[a] = Accepted
			accepted[a] = struct{}{}
		}
		for _, a := range wave {
			for _, t := range f.Targets(a) {
				if labels[t] == Rejected {
					continue
				}
				labels[t] = Rejected
				rejected[t] = struct{}{}
				for _, u := range f.Targets(t) {
					pending[u]--
					if pending[u] == 0 && labels[u] == Undecided {
						next = append(next, u)
					}
				}
			}
		}
		wave = next
	}

	return Result{
		Extension: af.NewExtension(f, accepted),
		Rejected:  af.NewExtension(f, rejected),
		Rounds:    rounds,
		labels:    labels,
	}, nil
}
