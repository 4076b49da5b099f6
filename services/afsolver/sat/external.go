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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// External runs a DIMACS solver binary for every solve call.
//
// The full clause database plus assumption units is streamed to the
// process's stdin; the answer is read from stdout. Cancelling ctx kills the
// process.
type External struct {
	command string
	args    []string
	clauses [][]int
	maxVar  int
	model   map[int]bool
	stats   Stats
	closed  bool
}

// NewExternal creates an oracle that shells out to command.
func NewExternal(command string, args ...string) (*External, error) {
	if command == "" {
		return nil, fmt.Errorf("%w: external backend requires a solver command", ErrUnknownBackend)
	}
	if _, err := exec.LookPath(command); err != nil {
		return nil, fmt.Errorf("external solver %q: %w", command, err)
	}
	return &External{command: command, args: args}, nil
}

// NewLit allocates a fresh variable.
func (o *External) NewLit() Lit {
	o.maxVar++
	o.stats.Vars = o.maxVar
	return Lit(o.maxVar)
}

// AddClause records a permanent clause.
func (o *External) AddClause(lits ...Lit) error {
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
	return nil
}

// Solve runs the external process on the current problem.
func (o *External) Solve(ctx context.Context, assumptions []Lit) (Status, error) {
	if o.closed {
		return Unknown, ErrOracleClosed
	}
	if err := checkLits(assumptions, o.maxVar); err != nil {
		return Unknown, err
	}

	var stdin, stdout, stderr bytes.Buffer
	if err := WriteDIMACS(&stdin, o.maxVar, o.clauses, assumptions); err != nil {
		return Unknown, fmt.Errorf("%w: encode problem: %v", ErrExternalSolver, err)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, o.command, o.args...)
	cmd.Stdin = &stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	if ctx.Err() != nil {
		o.stats.record(Unknown, time.Since(start))
		return Unknown, fmt.Errorf("%w: %v", ErrOracleExhausted, ctx.Err())
	}

	// Competition solvers exit 10 (SAT) or 20 (UNSAT); only failures to
	// start or output without a valid status line are errors.
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		o.stats.record(Unknown, time.Since(start))
		return Unknown, fmt.Errorf("%w: %v", ErrExternalSolver, runErr)
	}

	status, model, err := ParseSolverOutput(&stdout)
	if err != nil {
		o.stats.record(Unknown, time.Since(start))
		return Unknown, fmt.Errorf("%w (stderr: %s)", err, bytes.TrimSpace(stderr.Bytes()))
	}
	o.stats.record(status, time.Since(start))
	// "s UNKNOWN" means the solver hit its own resource limit.
	if status == Unknown {
		return Unknown, fmt.Errorf("%w: external solver reported UNKNOWN", ErrOracleExhausted)
	}
	o.model = model
	return status, nil
}

// Value returns the truth value of l in the last model.
func (o *External) Value(l Lit) bool {
	val := o.model[l.Var()]
	if l.IsPos() {
		return val
	}
	return !val
}

// Stats returns cumulative counters.
func (o *External) Stats() Stats {
	return o.stats
}

// Close drops the clause database.
func (o *External) Close() error {
	o.closed = true
	o.clauses = nil
	return nil
}
