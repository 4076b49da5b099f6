// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package af

import (
	"fmt"
	"sort"
)

// Argument is an opaque, stable argument identifier.
type Argument string

// Attack is an ordered (attacker, target) pair.
type Attack struct {
	From Argument `json:"from" yaml:"from"`
	To   Argument `json:"to" yaml:"to"`
}

// String renders the attack as "from->to".
func (a Attack) String() string {
	return string(a.From) + "->" + string(a.To)
}

// node holds the adjacency of a single live argument.
type node struct {
	seq       uint64
	attackers map[Argument]struct{}
	targets   map[Argument]struct{}
}

func newNode(seq uint64) *node {
	return &node{
		seq:       seq,
		attackers: make(map[Argument]struct{}),
		targets:   make(map[Argument]struct{}),
	}
}

// Framework is a mutable abstract argumentation framework.
//
// Arguments keep the sequence number they were inserted with; removing and
// re-adding an argument assigns a new sequence number, so it moves to the
// end of the canonical order.
type Framework struct {
	nodes   map[Argument]*node
	order   []Argument
	nextSeq uint64
	attacks int
}

// NewFramework creates an empty framework.
func NewFramework() *Framework {
	return &Framework{
		nodes: make(map[Argument]*node),
	}
}

// Build creates a framework from argument and attack lists.
//
// Description:
//
//	Arguments are inserted in the given order, then attacks. Any error from
//	AddArgument or AddAttack aborts construction.
//
// Inputs:
//
//	args - Arguments in canonical order. Must be unique and non-empty.
//	attacks - Attack pairs over args.
//
// Outputs:
//
//	*Framework - The constructed framework.
//	error - Wraps ErrMalformedFramework on invalid input.
func Build(args []Argument, attacks []Attack) (*Framework, error) {
	f := NewFramework()
	for _, a := range args {
		if err := f.AddArgument(a); err != nil {
			return nil, err
		}
	}
	for _, att := range attacks {
		if err := f.AddAttack(att.From, att.To); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Len returns the number of live arguments.
func (f *Framework) Len() int {
	return len(f.nodes)
}

// NumAttacks returns the number of attacks.
func (f *Framework) NumAttacks() int {
	return f.attacks
}

// HasArgument reports whether a is a live argument.
func (f *Framework) HasArgument(a Argument) bool {
	_, ok := f.nodes[a]
	return ok
}

// HasAttack reports whether from attacks to.
func (f *Framework) HasAttack(from, to Argument) bool {
	n, ok := f.nodes[from]
	if !ok {
		return false
	}
	_, ok = n.targets[to]
	return ok
}

// AddArgument inserts a new argument with no attacks.
func (f *Framework) AddArgument(a Argument) error {
	if a == "" {
		return fmt.Errorf("%w: empty argument identifier", ErrMalformedFramework)
	}
	if _, ok := f.nodes[a]; ok {
		return fmt.Errorf("%w: duplicate argument %q", ErrMalformedFramework, a)
	}
	f.nextSeq++
	f.nodes[a] = newNode(f.nextSeq)
	f.order = append(f.order, a)
	return nil
}

// RemoveArgument deletes a and every attack incident to it.
//
// Description:
//
//	Removal cascades: attacks from and to the argument disappear with it.
//	The removed attacks are returned in canonical order so callers can
//	record the cascade.
//
// Inputs:
//
//	a - A live argument.
//
// Outputs:
//
//	[]Attack - Attacks removed by the cascade.
//	error - Wraps ErrMalformedFramework if a is unknown.
func (f *Framework) RemoveArgument(a Argument) ([]Attack, error) {
	n, ok := f.nodes[a]
	if !ok {
		return nil, fmt.Errorf("%w: unknown argument %q", ErrMalformedFramework, a)
	}

	removed := make([]Attack, 0, len(n.attackers)+len(n.targets))
	for _, b := range f.sorted(n.attackers) {
		removed = append(removed, Attack{From: b, To: a})
		delete(f.nodes[b].targets, a)
	}
	for _, t := range f.sorted(n.targets) {
		if t == a {
			// Self-attack already recorded above.
			continue
		}
		removed = append(removed, Attack{From: a, To: t})
		delete(f.nodes[t].attackers, a)
	}
	f.attacks -= len(removed)

	delete(f.nodes, a)
	for i, x := range f.order {
		if x == a {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return removed, nil
}

// AddAttack inserts the attack from->to. Self-attacks are allowed.
func (f *Framework) AddAttack(from, to Argument) error {
	src, ok := f.nodes[from]
	if !ok {
		return fmt.Errorf("%w: attack %s->%s: unknown attacker", ErrMalformedFramework, from, to)
	}
	dst, ok := f.nodes[to]
	if !ok {
		return fmt.Errorf("%w: attack %s->%s: unknown target", ErrMalformedFramework, from, to)
	}
	if _, dup := src.targets[to]; dup {
		return fmt.Errorf("%w: duplicate attack %s->%s", ErrMalformedFramework, from, to)
	}
	src.targets[to] = struct{}{}
	dst.attackers[from] = struct{}{}
	f.attacks++
	return nil
}

// RemoveAttack deletes the attack from->to.
func (f *Framework) RemoveAttack(from, to Argument) error {
	if !f.HasAttack(from, to) {
		return fmt.Errorf("%w: unknown attack %s->%s", ErrMalformedFramework, from, to)
	}
	delete(f.nodes[from].targets, to)
	delete(f.nodes[to].attackers, from)
	f.attacks--
	return nil
}

// Arguments returns the live arguments in insertion order.
func (f *Framework) Arguments() []Argument {
	out := make([]Argument, len(f.order))
	copy(out, f.order)
	return out
}

// Attackers returns the attackers of a in canonical order, or nil if a is
// unknown.
func (f *Framework) Attackers(a Argument) []Argument {
	n, ok := f.nodes[a]
	if !ok {
		return nil
	}
	return f.sorted(n.attackers)
}

// Targets returns the arguments attacked by a in canonical order.
func (f *Framework) Targets(a Argument) []Argument {
	n, ok := f.nodes[a]
	if !ok {
		return nil
	}
	return f.sorted(n.targets)
}

// NumAttackers returns the in-degree of a.
func (f *Framework) NumAttackers(a Argument) int {
	n, ok := f.nodes[a]
	if !ok {
		return 0
	}
	return len(n.attackers)
}

// Attacks returns every attack, ordered by attacker then target.
func (f *Framework) Attacks() []Attack {
	out := make([]Attack, 0, f.attacks)
	for _, a := range f.order {
		for _, t := range f.sorted(f.nodes[a].targets) {
			out = append(out, Attack{From: a, To: t})
		}
	}
	return out
}

// Clone returns a deep copy that shares no state with f.
func (f *Framework) Clone() *Framework {
	c := &Framework{
		nodes:   make(map[Argument]*node, len(f.nodes)),
		order:   make([]Argument, len(f.order)),
		nextSeq: f.nextSeq,
		attacks: f.attacks,
	}
	copy(c.order, f.order)
	for a, n := range f.nodes {
		cn := newNode(n.seq)
		for b := range n.attackers {
			cn.attackers[b] = struct{}{}
		}
		for t := range n.targets {
			cn.targets[t] = struct{}{}
		}
		c.nodes[a] = cn
	}
	return c
}

// Validate checks the internal invariants: every attack endpoint is live and
// the attacker/target indexes agree.
func (f *Framework) Validate() error {
	if len(f.order) != len(f.nodes) {
		return fmt.Errorf("%w: order index has %d entries for %d arguments",
			ErrMalformedFramework, len(f.order), len(f.nodes))
	}
	count := 0
	for a, n := range f.nodes {
		for t := range n.targets {
			tn, ok := f.nodes[t]
			if !ok {
				return fmt.Errorf("%w: attack %s->%s: unknown target", ErrMalformedFramework, a, t)
			}
			if _, ok := tn.attackers[a]; !ok {
				return fmt.Errorf("%w: attack %s->%s missing from attacker index", ErrMalformedFramework, a, t)
			}
			count++
		}
		for b := range n.attackers {
			if _, ok := f.nodes[b]; !ok {
				return fmt.Errorf("%w: attack %s->%s: unknown attacker", ErrMalformedFramework, b, a)
			}
		}
	}
	if count != f.attacks {
		return fmt.Errorf("%w: attack count %d, indexed %d", ErrMalformedFramework, f.attacks, count)
	}
	return nil
}

// Less reports whether a precedes b in canonical order. Unknown arguments
// sort last, by identifier.
func (f *Framework) Less(a, b Argument) bool {
	na, oka := f.nodes[a]
	nb, okb := f.nodes[b]
	switch {
	case oka && okb:
		return na.seq < nb.seq
	case oka:
		return true
	case okb:
		return false
	default:
		return a < b
	}
}

// sorted returns the members of set in canonical order.
func (f *Framework) sorted(set map[Argument]struct{}) []Argument {
	out := make([]Argument, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return f.Less(out[i], out[j]) })
	return out
}
