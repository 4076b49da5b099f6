// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package encoding

import (
	"fmt"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
)

// Sink receives variables and clauses.
type Sink interface {
	LitAllocator
	AddClause(lits ...sat.Lit) error
}

// Valuer reads a model.
type Valuer interface {
	Value(l sat.Lit) bool
}

// Profile selects which selector-guarded constraint families are active.
type Profile int

const (
	// ProfileConflictFree: models are the conflict-free sets.
	ProfileConflictFree Profile = iota

	// ProfileAdmissible: models are the admissible sets.
	ProfileAdmissible

	// ProfileComplete: models are the complete extensions.
	ProfileComplete

	// ProfileStable: models are the stable extensions.
	ProfileStable
)

var profileNames = map[Profile]string{
	ProfileConflictFree: "conflict_free",
	ProfileAdmissible:   "admissible",
	ProfileComplete:     "complete",
	ProfileStable:       "stable",
}

// String returns the profile name.
func (p Profile) String() string {
	if name, ok := profileNames[p]; ok {
		return name
	}
	return fmt.Sprintf("profile(%d)", int(p))
}

func (p Profile) defense() bool      { return p >= ProfileAdmissible }
func (p Profile) completeness() bool { return p >= ProfileComplete }
func (p Profile) totality() bool     { return p == ProfileStable }

// Encoder emits argument clause groups into a Sink.
//
// Thread Safety: NOT safe for concurrent use.
type Encoder struct {
	sink   Sink
	mapper *Mapper

	defense      sat.Lit
	completeness sat.Lit
	totality     sat.Lit

	clauses int
}

// NewEncoder creates an encoder and allocates its selector literals.
func NewEncoder(sink Sink) *Encoder {
	e := &Encoder{
		sink:   sink,
		mapper: NewMapper(sink),
	}
	e.defense = sink.NewLit()
	e.completeness = sink.NewLit()
	e.totality = sink.NewLit()
	return e
}

// Mapper returns the encoder's literal mapper.
func (e *Encoder) Mapper() *Mapper {
	return e.mapper
}

// Clauses returns the number of clauses emitted so far.
func (e *Encoder) Clauses() int {
	return e.clauses
}

func (e *Encoder) add(lits ...sat.Lit) error {
	if err := e.sink.AddClause(lits...); err != nil {
		return err
	}
	e.clauses++
	return nil
}

// Encode brings the clause database in line with f.
//
// Description:
//
//	Maps every argument of f that has no variables yet, then emits the
//	clause group of every live argument whose group is missing (new or
//	invalidated). Arguments with an up-to-date group are left untouched.
//
// Inputs:
//
//	f - The framework. Every argument must be live.
//
// Outputs:
//
//	int - Number of clause groups emitted.
//	error - Oracle errors.
func (e *Encoder) Encode(f *af.Framework) (int, error) {
	args := f.Arguments()
	for _, a := range args {
		e.mapper.Ensure(a)
	}
	groups := 0
	for _, a := range args {
		ent := e.mapper.live[a]
		if ent.encoded {
			continue
		}
		if err := e.encodeGroup(f, a, ent.vars); err != nil {
			return groups, fmt.Errorf("encode %q: %w", a, err)
		}
		ent.encoded = true
		groups++
	}
	return groups, nil
}

// encodeGroup emits the clause group of a under its gen literal.
func (e *Encoder) encodeGroup(f *af.Framework, a af.Argument, v Vars) error {
	g := v.Gen.Not()
	attackers := f.Attackers(a)
	in := make([]sat.Lit, len(attackers))
	out := make([]sat.Lit, len(attackers))
	for i, b := range attackers {
		bv, ok := e.mapper.Lookup(b)
		if !ok {
			return fmt.Errorf("%w: attacker %q", ErrUnmapped, b)
		}
		in[i] = bv.In
		out[i] = bv.Out
	}

	// out <-> OR(in_b)
	def := make([]sat.Lit, 0, len(in)+2)
	def = append(def, g, v.Out.Not())
	def = append(def, in...)
	if err := e.add(def...); err != nil {
		return err
	}
	for _, ib := range in {
		if err := e.add(g, v.Out, ib.Not()); err != nil {
			return err
		}
	}

	// Conflict-freeness.
	if err := e.add(g, v.In.Not(), v.Out.Not()); err != nil {
		return err
	}

	// range <-> in OR out
	if err := e.add(g, v.In.Not(), v.Range); err != nil {
		return err
	}
	if err := e.add(g, v.Out.Not(), v.Range); err != nil {
		return err
	}
	if err := e.add(g, v.Range.Not(), v.In, v.Out); err != nil {
		return err
	}

	// Defense: in -> out_b.
	for _, ob := range out {
		if err := e.add(g, e.defense.Not(), v.In.Not(), ob); err != nil {
			return err
		}
	}

	// Completeness: AND(out_b) -> in.
	cmp := make([]sat.Lit, 0, len(out)+3)
	cmp = append(cmp, g, e.completeness.Not(), v.In)
	for _, ob := range out {
		cmp = append(cmp, ob.Not())
	}
	if err := e.add(cmp...); err != nil {
		return err
	}

	// Totality: in OR out.
	return e.add(g, e.totality.Not(), v.In, v.Out)
}

// Invalidate retires the current clause group of a. The next Encode emits a
// fresh group under a new gen literal.
func (e *Encoder) Invalidate(a af.Argument) error {
	ent, ok := e.mapper.live[a]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnmapped, a)
	}
	if !ent.encoded {
		return nil
	}
	old, err := e.mapper.regenerate(a)
	if err != nil {
		return err
	}
	return e.add(old.Not())
}

// Retire permanently disables every variable of a.
func (e *Encoder) Retire(a af.Argument) error {
	v, err := e.mapper.retire(a)
	if err != nil {
		return err
	}
	for _, l := range []sat.Lit{v.Gen, v.In, v.Out, v.Range} {
		if err := e.add(l.Not()); err != nil {
			return err
		}
	}
	return nil
}

// Assumptions returns the literals activating profile p over f.
func (e *Encoder) Assumptions(f *af.Framework, p Profile) ([]sat.Lit, error) {
	args := f.Arguments()
	out := make([]sat.Lit, 0, len(args)+3)
	for _, a := range args {
		ent, ok := e.mapper.live[a]
		if !ok || !ent.encoded {
			return nil, fmt.Errorf("%w: %q", ErrUnmapped, a)
		}
		out = append(out, ent.vars.Gen)
	}
	out = append(out,
		polarity(e.defense, p.defense()),
		polarity(e.completeness, p.completeness()),
		polarity(e.totality, p.totality()),
	)
	return out, nil
}

func polarity(l sat.Lit, on bool) sat.Lit {
	if on {
		return l
	}
	return l.Not()
}

// Extension decodes the accepted arguments of f from model.
func (e *Encoder) Extension(f *af.Framework, model Valuer) af.Extension {
	return e.decode(f, model, func(v Vars) sat.Lit { return v.In })
}

// RangeOf decodes the range (accepted or attacked arguments) from model.
func (e *Encoder) RangeOf(f *af.Framework, model Valuer) af.Extension {
	return e.decode(f, model, func(v Vars) sat.Lit { return v.Range })
}

func (e *Encoder) decode(f *af.Framework, model Valuer, pick func(Vars) sat.Lit) af.Extension {
	args := f.Arguments()
	out := make(af.Extension, 0, len(args))
	for _, a := range args {
		v, ok := e.mapper.Lookup(a)
		if ok && model.Value(pick(v)) {
			out = append(out, a)
		}
	}
	return out
}
