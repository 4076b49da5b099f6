// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sat

import (
	"context"
	"fmt"
	"time"

	"github.com/crillab/gophersat/solver"
)

// Gophersat is an oracle backed by github.com/crillab/gophersat.
//
// gophersat has no assumption interface, so the clause database is kept
// here and a fresh solver is built for every call with the assumptions
// appended as unit clauses. A cancelled call abandons the running solver;
// its result is discarded.
type Gophersat struct {
	clauses [][]int
	maxVar  int
	model   []bool
	stats   Stats
	closed  bool
}

// NewGophersat creates an empty gophersat oracle.
func NewGophersat() *Gophersat {
	return &Gophersat{}
}

// NewLit allocates a fresh variable.
func (o *Gophersat) NewLit() Lit {
	o.maxVar++
	o.stats.Vars = o.maxVar
	return Lit(o.maxVar)
}

// AddClause records a permanent clause.
func (o *Gophersat) AddClause(lits ...Lit) error {
	if o.closed {
		return ErrOracleClosed
	}
	if err := checkClause(lits, o.maxVar); err != nil {
		return err
	}
	c := make([]int, len(lits))
	for i, l := range lits {
		c[i] = int(l)
	}
	o.clauses = append(o.clauses, c)
	o.stats.Clauses++
	o.model = nil
	return nil
}

type gophersatResult struct {
	status solver.Status
	model  []bool
}

// Solve builds a gophersat problem from the stored clauses plus assumption
// units and solves it.
func (o *Gophersat) Solve(ctx context.Context, assumptions []Lit) (Status, error) {
	if o.closed {
		return Unknown, ErrOracleClosed
	}
	if err := checkLits(assumptions, o.maxVar); err != nil {
		return Unknown, err
	}
	if err := ctx.Err(); err != nil {
		o.stats.record(Unknown, 0)
		return Unknown, fmt.Errorf("%w: %v", ErrOracleExhausted, err)
	}

	cnf := make([][]int, 0, len(o.clauses)+len(assumptions))
	cnf = append(cnf, o.clauses...)
	for _, l := range assumptions {
		cnf = append(cnf, []int{int(l)})
	}

	start := time.Now()
	run := func() gophersatResult {
		s := solver.New(solver.ParseSlice(cnf))
		st := s.Solve()
		res := gophersatResult{status: st}
		if st == solver.Sat {
			res.model = s.Model()
		}
		return res
	}

	var res gophersatResult
	if ctx.Done() == nil {
		res = run()
	} else {
		done := make(chan gophersatResult, 1)
		go func() { done <- run() }()
		select {
		case res = <-done:
		case <-ctx.Done():
			o.stats.record(Unknown, time.Since(start))
			return Unknown, fmt.Errorf("%w: %v", ErrOracleExhausted, ctx.Err())
		}
	}

	o.model = nil
	switch res.status {
	case solver.Sat:
		o.model = res.model
		o.stats.record(Satisfiable, time.Since(start))
		return Satisfiable, nil
	case solver.Unsat:
		o.stats.record(Unsatisfiable, time.Since(start))
		return Unsatisfiable, nil
	default:
		o.stats.record(Unknown, time.Since(start))
		return Unknown, ErrOracleExhausted
	}
}

// Value returns the truth value of l in the last model.
func (o *Gophersat) Value(l Lit) bool {
	v := l.Var()
	val := false
	if v >= 1 && v <= len(o.model) {
		val = o.model[v-1]
	}
	if l.IsPos() {
		return val
	}
	return !val
}

// Stats returns cumulative counters.
func (o *Gophersat) Stats() Stats {
	return o.stats
}

// Close drops the clause database.
func (o *Gophersat) Close() error {
	o.closed = true
	o.clauses = nil
	o.model = nil
	return nil
}
