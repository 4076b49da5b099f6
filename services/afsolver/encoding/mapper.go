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

// LitAllocator hands out fresh oracle variables.
type LitAllocator interface {
	NewLit() sat.Lit
}

// Vars are the oracle literals of one argument life.
type Vars struct {
	In    sat.Lit
	Out   sat.Lit
	Range sat.Lit
	Gen   sat.Lit
}

// entry is a mapper record for one argument life.
type entry struct {
	vars       Vars
	generation int
	encoded    bool
}

// Mapper assigns oracle variables to arguments.
//
// A mapping lives as long as the argument: removing the argument retires
// its variables permanently, and re-adding it allocates new ones.
//
// Thread Safety: NOT safe for concurrent use.
type Mapper struct {
	alloc   LitAllocator
	live    map[af.Argument]*entry
	retired int
	vars    int
}

// NewMapper creates a mapper drawing variables from alloc.
func NewMapper(alloc LitAllocator) *Mapper {
	return &Mapper{
		alloc: alloc,
		live:  make(map[af.Argument]*entry),
	}
}

func (m *Mapper) newLit() sat.Lit {
	m.vars++
	return m.alloc.NewLit()
}

// Ensure returns the variables of a, allocating them on first use.
func (m *Mapper) Ensure(a af.Argument) (Vars, bool) {
	if e, ok := m.live[a]; ok {
		return e.vars, false
	}
	e := &entry{
		vars: Vars{
			In:    m.newLit(),
			Out:   m.newLit(),
			Range: m.newLit(),
			Gen:   m.newLit(),
		},
	}
	m.live[a] = e
	return e.vars, true
}

// Lookup returns the variables of a live mapped argument.
func (m *Mapper) Lookup(a af.Argument) (Vars, bool) {
	e, ok := m.live[a]
	if !ok {
		return Vars{}, false
	}
	return e.vars, true
}

// In returns the acceptance literal of a.
func (m *Mapper) In(a af.Argument) (sat.Lit, error) {
	v, ok := m.Lookup(a)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnmapped, a)
	}
	return v.In, nil
}

// regenerate replaces the gen literal of a and returns the old one.
func (m *Mapper) regenerate(a af.Argument) (old sat.Lit, err error) {
	e, ok := m.live[a]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnmapped, a)
	}
	old = e.vars.Gen
	e.vars.Gen = m.newLit()
	e.generation++
	e.encoded = false
	return old, nil
}

// retire drops a from the live mapping and returns its final variables.
func (m *Mapper) retire(a af.Argument) (Vars, error) {
	e, ok := m.live[a]
	if !ok {
		return Vars{}, fmt.Errorf("%w: %q", ErrUnmapped, a)
	}
	delete(m.live, a)
	m.retired++
	return e.vars, nil
}

// Generation returns how many times the clause group of a was regenerated.
func (m *Mapper) Generation(a af.Argument) int {
	if e, ok := m.live[a]; ok {
		return e.generation
	}
	return -1
}

// Len returns the number of live mapped arguments.
func (m *Mapper) Len() int {
	return len(m.live)
}

// Retired returns how many argument lives have been retired.
func (m *Mapper) Retired() int {
	return m.retired
}

// Allocated returns the number of variables this mapper has allocated.
func (m *Mapper) Allocated() int {
	return m.vars
}
