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

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// Gini is an incremental oracle backed by github.com/go-air/gini.
type Gini struct {
	g       *gini.Gini
	maxVar  int
	poll    time.Duration
	stats   Stats
	closed  bool
	scratch []z.Lit
}

// NewGini creates a gini oracle. poll is the completion check interval used
// when Solve receives a cancellable context.
func NewGini(poll time.Duration) *Gini {
	if poll <= 0 {
		poll = DefaultConfig().PollInterval
	}
	return &Gini{
		g:    gini.New(),
		poll: poll,
	}
}

// NewLit allocates a fresh variable.
func (o *Gini) NewLit() Lit {
	o.maxVar++
	o.stats.Vars = o.maxVar
	return Lit(o.maxVar)
}

// AddClause adds a permanent clause.
func (o *Gini) AddClause(lits ...Lit) error {
	if o.closed {
		return ErrOracleClosed
	}
	if err := checkClause(lits, o.maxVar); err != nil {
		return err
	}
	for _, l := range lits {
		o.g.Add(z.Dimacs2Lit(int(l)))
	}
	o.g.Add(z.LitNull)
	o.stats.Clauses++
	return nil
}

// Solve runs gini under assumptions.
//
// Description:
//
//	A context without a Done channel solves synchronously. Otherwise the
//	solve runs through gini's GoSolve handle, polled every poll interval,
//	and is stopped when ctx is done.
//
// Inputs:
//
//	ctx - Cancellation and deadline.
//	assumptions - Literals assumed true for this call only.
//
// Outputs:
//
//	Status - Satisfiable or Unsatisfiable. Unknown on cancellation.
//	error - ErrOracleExhausted on cancellation, ErrUnknownLiteral on a bad
//	        assumption.
func (o *Gini) Solve(ctx context.Context, assumptions []Lit) (Status, error) {
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

	o.scratch = o.scratch[:0]
	for _, l := range assumptions {
		o.scratch = append(o.scratch, z.Dimacs2Lit(int(l)))
	}
	o.g.Assume(o.scratch...)

	start := time.Now()
	var res int
	if ctx.Done() == nil {
		res = o.g.Solve()
	} else {
		var err error
		res, err = o.solveCancellable(ctx)
		if err != nil {
			o.stats.record(Unknown, time.Since(start))
			return Unknown, err
		}
	}

	status := fromGini(res)
	o.stats.record(status, time.Since(start))
	if status == Unknown {
		return Unknown, ErrOracleExhausted
	}
	return status, nil
}

func (o *Gini) solveCancellable(ctx context.Context) (int, error) {
	handle := o.g.GoSolve()
	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()
	for {
		if res, done := handle.Test(); done {
			return res, nil
		}
		select {
		case <-ctx.Done():
			handle.Stop()
			return 0, fmt.Errorf("%w: %v", ErrOracleExhausted, ctx.Err())
		case <-ticker.C:
		}
	}
}

func fromGini(res int) Status {
	switch res {
	case 1:
		return Satisfiable
	case -1:
		return Unsatisfiable
	default:
		return Unknown
	}
}

// Value returns the truth value of l in the last model. Variables the solver
// has never seen read as false.
func (o *Gini) Value(l Lit) bool {
	if l == 0 || z.Var(l.Var()) > o.g.MaxVar() {
		return !l.IsPos() && l != 0
	}
	return o.g.Value(z.Dimacs2Lit(int(l)))
}

// Stats returns cumulative counters.
func (o *Gini) Stats() Stats {
	return o.stats
}

// Close drops the solver.
func (o *Gini) Close() error {
	o.closed = true
	o.g = nil
	return nil
}
