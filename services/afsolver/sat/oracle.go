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
	"log/slog"
	"time"
)

// Oracle is an incremental satisfiability oracle.
//
// Clauses added with AddClause are permanent. Assumptions passed to Solve
// hold for that call only. After a Satisfiable result, Value reports the
// model until the next Solve or AddClause.
//
// Thread Safety: implementations are NOT safe for concurrent use.
type Oracle interface {
	// NewLit allocates a fresh variable and returns its positive literal.
	// Variables are never reused.
	NewLit() Lit

	// AddClause adds the disjunction of lits permanently.
	AddClause(lits ...Lit) error

	// Solve decides satisfiability under assumptions. A cancelled or
	// expired ctx yields ErrOracleExhausted.
	Solve(ctx context.Context, assumptions []Lit) (Status, error)

	// Value returns the truth value of l in the last model.
	Value(l Lit) bool

	// Stats returns cumulative counters.
	Stats() Stats

	// Close releases solver resources.
	Close() error
}

// Stats holds cumulative oracle counters.
type Stats struct {
	Vars      int           `json:"vars"`
	Clauses   int           `json:"clauses"`
	Solves    int           `json:"solves"`
	Sat       int           `json:"sat"`
	Unsat     int           `json:"unsat"`
	Cancelled int           `json:"cancelled"`
	SolveTime time.Duration `json:"solve_time"`
}

func (s *Stats) record(status Status, elapsed time.Duration) {
	s.Solves++
	s.SolveTime += elapsed
	switch status {
	case Satisfiable:
		s.Sat++
	case Unsatisfiable:
		s.Unsat++
	default:
		s.Cancelled++
	}
}

// Backend names an oracle implementation.
type Backend string

const (
	// BackendGini selects the incremental gini solver.
	BackendGini Backend = "gini"

	// BackendGophersat selects gophersat, rebuilt on every solve.
	BackendGophersat Backend = "gophersat"

	// BackendExternal selects an external DIMACS solver process.
	BackendExternal Backend = "external"
)

// Config selects and configures an oracle backend.
type Config struct {
	// Backend selects the implementation. Default: gini.
	Backend Backend `yaml:"backend" validate:"omitempty,oneof=gini gophersat external"`

	// ExternalCommand is the solver binary for the external backend.
	ExternalCommand string `yaml:"external_command" validate:"required_if=Backend external"`

	// ExternalArgs are extra arguments passed to the external solver.
	ExternalArgs []string `yaml:"external_args"`

	// PollInterval is how often a cancellable gini solve checks for
	// completion. Default: 5ms.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Logger receives per-call debug records. Default: slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the gini backend with default polling.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendGini,
		PollInterval: 5 * time.Millisecond,
	}
}

// New creates an instrumented oracle for cfg.
//
// Description:
//
//	Builds the configured backend and wraps it so every solve call is
//	logged at debug level and counted in the oracle Prometheus metrics.
//
// Inputs:
//
//	cfg - Backend configuration. Zero fields fall back to DefaultConfig.
//
// Outputs:
//
//	Oracle - Ready-to-use oracle.
//	error - ErrUnknownBackend, or a configuration error for external.
func New(cfg Config) (Oracle, error) {
	defaults := DefaultConfig()
	if cfg.Backend == "" {
		cfg.Backend = defaults.Backend
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var inner Oracle
	switch cfg.Backend {
	case BackendGini:
		inner = NewGini(cfg.PollInterval)
	case BackendGophersat:
		inner = NewGophersat()
	case BackendExternal:
		ext, err := NewExternal(cfg.ExternalCommand, cfg.ExternalArgs...)
		if err != nil {
			return nil, err
		}
		inner = ext
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	return newInstrumented(inner, cfg.Backend, cfg.Logger), nil
}
