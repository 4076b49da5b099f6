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
	"fmt"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/encoding"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
)

// Target selects which literal of an argument a search optimizes.
type Target int

const (
	// TargetIn optimizes the accepted set.
	TargetIn Target = iota

	// TargetRange optimizes the range (accepted or attacked).
	TargetRange
)

func (t Target) lit(v encoding.Vars) sat.Lit {
	if t == TargetRange {
		return v.Range
	}
	return v.In
}

// Model is a decoded model: the accepted set and its range.
type Model struct {
	In    af.Extension
	Range af.Extension
}

func (m Model) target(t Target) af.Extension {
	if t == TargetRange {
		return m.Range
	}
	return m.In
}

// Base bundles an oracle with the encoding of one framework.
type Base struct {
	oracle sat.Oracle
	enc    *encoding.Encoder
	f      *af.Framework
}

// NewBase creates a search base. The framework must already be encoded.
func NewBase(oracle sat.Oracle, enc *encoding.Encoder, f *af.Framework) *Base {
	return &Base{oracle: oracle, enc: enc, f: f}
}

// Framework returns the framework being searched.
func (b *Base) Framework() *af.Framework {
	return b.f
}

// Oracle returns the underlying oracle.
func (b *Base) Oracle() sat.Oracle {
	return b.oracle
}

// Scope opens a root scope.
func (b *Base) Scope() *Scope {
	return &Scope{base: b, gates: []sat.Lit{b.oracle.NewLit()}}
}

func (b *Base) capture() Model {
	return Model{
		In:    b.enc.Extension(b.f, b.oracle),
		Range: b.enc.RangeOf(b.f, b.oracle),
	}
}

// lits returns the target literals of args.
func (b *Base) lits(t Target, args []af.Argument) ([]sat.Lit, error) {
	out := make([]sat.Lit, 0, len(args))
	for _, a := range args {
		v, ok := b.enc.Mapper().Lookup(a)
		if !ok {
			return nil, fmt.Errorf("%w: %q", encoding.ErrUnmapped, a)
		}
		out = append(out, t.lit(v))
	}
	return out, nil
}

// Lit returns the target literal of a single argument.
func (b *Base) Lit(t Target, a af.Argument) (sat.Lit, error) {
	l, err := b.lits(t, []af.Argument{a})
	if err != nil {
		return 0, err
	}
	return l[0], nil
}

// complement returns the live arguments not in set.
func (b *Base) complement(set af.Extension) []af.Argument {
	members := set.Set()
	var out []af.Argument
	for _, a := range b.f.Arguments() {
		if _, ok := members[a]; !ok {
			out = append(out, a)
		}
	}
	return out
}

// Scope is a set of transient clauses guarded by a gate literal.
//
// Thread Safety: NOT safe for concurrent use.
type Scope struct {
	base   *Base
	gates  []sat.Lit
	closed bool
}

func (s *Scope) gate() sat.Lit {
	return s.gates[len(s.gates)-1]
}

// Base returns the scope's search base.
func (s *Scope) Base() *Base {
	return s.base
}

// Child opens a nested scope. Its solves also assume every ancestor gate.
func (s *Scope) Child() *Scope {
	gates := make([]sat.Lit, len(s.gates), len(s.gates)+1)
	copy(gates, s.gates)
	return &Scope{base: s.base, gates: append(gates, s.base.oracle.NewLit())}
}

// Add adds a clause that holds while the scope is open.
func (s *Scope) Add(lits ...sat.Lit) error {
	if s.closed {
		return ErrScopeClosed
	}
	clause := make([]sat.Lit, 0, len(lits)+1)
	clause = append(clause, s.gate().Not())
	clause = append(clause, lits...)
	return s.base.oracle.AddClause(clause...)
}

// Solve solves profile p under the scope's constraints and extra
// assumptions.
func (s *Scope) Solve(ctx context.Context, p encoding.Profile, extra ...sat.Lit) (sat.Status, error) {
	if s.closed {
		return sat.Unknown, ErrScopeClosed
	}
	base, err := s.base.enc.Assumptions(s.base.f, p)
	if err != nil {
		return sat.Unknown, err
	}
	assumptions := make([]sat.Lit, 0, len(base)+len(s.gates)+len(extra))
	assumptions = append(assumptions, base...)
	assumptions = append(assumptions, s.gates...)
	assumptions = append(assumptions, extra...)
	return s.base.oracle.Solve(ctx, assumptions)
}

// Find solves and decodes the model if one exists.
func (s *Scope) Find(ctx context.Context, p encoding.Profile, extra ...sat.Lit) (Model, bool, error) {
	st, err := s.Solve(ctx, p, extra...)
	if err != nil {
		return Model{}, false, err
	}
	if st != sat.Satisfiable {
		return Model{}, false, nil
	}
	return s.base.capture(), true, nil
}

// BlockExact excludes models whose accepted set is exactly ext.
func (s *Scope) BlockExact(ext af.Extension) error {
	in, err := s.base.lits(TargetIn, ext)
	if err != nil {
		return err
	}
	out, err := s.base.lits(TargetIn, s.base.complement(ext))
	if err != nil {
		return err
	}
	clause := make([]sat.Lit, 0, len(in)+len(out))
	for _, l := range in {
		clause = append(clause, l.Not())
	}
	clause = append(clause, out...)
	return s.Add(clause...)
}

// BlockSubsets excludes models whose target set is a subset of set.
func (s *Scope) BlockSubsets(t Target, set af.Extension) error {
	lits, err := s.base.lits(t, s.base.complement(set))
	if err != nil {
		return err
	}
	return s.Add(lits...)
}

// Pin fixes the target set to exactly set while the scope is open.
func (s *Scope) Pin(t Target, set af.Extension) error {
	in, err := s.base.lits(t, set)
	if err != nil {
		return err
	}
	for _, l := range in {
		if err := s.Add(l); err != nil {
			return err
		}
	}
	out, err := s.base.lits(t, s.base.complement(set))
	if err != nil {
		return err
	}
	for _, l := range out {
		if err := s.Add(l.Not()); err != nil {
			return err
		}
	}
	return nil
}

// Close fixes the gate false. Closing twice is a no-op.
func (s *Scope) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.base.oracle.AddClause(s.gate().Not())
}
