// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
)

// Op is a mutation kind.
type Op string

const (
	// OpAddArgument adds an argument.
	OpAddArgument Op = "add_argument"

	// OpRemoveArgument removes an argument and its incident attacks.
	OpRemoveArgument Op = "remove_argument"

	// OpAddAttack adds an attack.
	OpAddAttack Op = "add_attack"

	// OpRemoveAttack removes an attack.
	OpRemoveAttack Op = "remove_attack"
)

// Mutation is one framework change.
type Mutation struct {
	Op       Op          `json:"op" yaml:"op" binding:"required,oneof=add_argument remove_argument add_attack remove_attack"`
	Argument af.Argument `json:"argument,omitempty" yaml:"argument,omitempty"`
	From     af.Argument `json:"from,omitempty" yaml:"from,omitempty"`
	To       af.Argument `json:"to,omitempty" yaml:"to,omitempty"`
}

// Batch is an ordered list of mutations applied atomically.
type Batch []Mutation

// AddArgument returns an add-argument mutation.
func AddArgument(a af.Argument) Mutation { return Mutation{Op: OpAddArgument, Argument: a} }

// RemoveArgument returns a remove-argument mutation.
func RemoveArgument(a af.Argument) Mutation { return Mutation{Op: OpRemoveArgument, Argument: a} }

// AddAttack returns an add-attack mutation.
func AddAttack(from, to af.Argument) Mutation { return Mutation{Op: OpAddAttack, From: from, To: to} }

// RemoveAttack returns a remove-attack mutation.
func RemoveAttack(from, to af.Argument) Mutation { return Mutation{Op: OpRemoveAttack, From: from, To: to} }

// String renders the mutation in script notation ("+arg a", "-att a b").
func (m Mutation) String() string {
	switch m.Op {
	case OpAddArgument:
		return "+arg " + string(m.Argument)
	case OpRemoveArgument:
		return "-arg " + string(m.Argument)
	case OpAddAttack:
		return "+att " + string(m.From) + " " + string(m.To)
	case OpRemoveAttack:
		return "-att " + string(m.From) + " " + string(m.To)
	}
	return string(m.Op)
}

// ParseMutation parses script notation: "+arg a", "-arg a", "+att a b",
// "-att a b".
func ParseMutation(line string) (Mutation, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Mutation{}, fmt.Errorf("%w: empty line", ErrBadMutation)
	}
	switch fields[0] {
	case "+arg", "-arg":
		if len(fields) != 2 {
			return Mutation{}, fmt.Errorf("%w: %q: want one argument", ErrBadMutation, line)
		}
		if fields[0] == "+arg" {
			return AddArgument(af.Argument(fields[1])), nil
		}
		return RemoveArgument(af.Argument(fields[1])), nil
	case "+att", "-att":
		if len(fields) != 3 {
			return Mutation{}, fmt.Errorf("%w: %q: want attacker and target", ErrBadMutation, line)
		}
		if fields[0] == "+att" {
			return AddAttack(af.Argument(fields[1]), af.Argument(fields[2])), nil
		}
		return RemoveAttack(af.Argument(fields[1]), af.Argument(fields[2])), nil
	}
	return Mutation{}, fmt.Errorf("%w: unknown operation %q", ErrBadMutation, fields[0])
}

// effect records what applying a batch touched.
type effect struct {
	removed []af.Argument
	dirty   map[af.Argument]struct{}
	added   int
}

// apply runs m against f and records its effect.
func (m Mutation) apply(f *af.Framework, eff *effect) error {
	switch m.Op {
	case OpAddArgument:
		if err := f.AddArgument(m.Argument); err != nil {
			return err
		}
		eff.added++
	case OpRemoveArgument:
		cascade, err := f.RemoveArgument(m.Argument)
		if err != nil {
			return err
		}
		eff.removed = append(eff.removed, m.Argument)
		for _, att := range cascade {
			eff.dirty[att.To] = struct{}{}
		}
	case OpAddAttack:
		if err := f.AddAttack(m.From, m.To); err != nil {
			return err
		}
		eff.dirty[m.To] = struct{}{}
	case OpRemoveAttack:
		if err := f.RemoveAttack(m.From, m.To); err != nil {
			return err
		}
		eff.dirty[m.To] = struct{}{}
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrBadMutation, m.Op)
	}
	return nil
}

// applyBatch applies every mutation of b to f, stopping at the first error.
func applyBatch(f *af.Framework, b Batch) (*effect, error) {
	eff := &effect{dirty: make(map[af.Argument]struct{})}
	for i, m := range b {
		if err := m.apply(f, eff); err != nil {
			return nil, fmt.Errorf("mutation %d (%s): %w", i, m, err)
		}
	}
	return eff, nil
}
