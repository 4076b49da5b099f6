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
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Oracle Calls
// =============================================================================

var (
	// solveLatency measures oracle call latency.
	// Labels: backend, result (sat, unsat, unknown)
	solveLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "afsolver",
		Subsystem: "oracle",
		Name:      "solve_duration_seconds",
		Help:      "Oracle solve call latency in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"backend", "result"})

	// solveCalls counts oracle calls.
	// Labels: backend, result
	solveCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "afsolver",
		Subsystem: "oracle",
		Name:      "solves_total",
		Help:      "Total oracle solve calls",
	}, []string{"backend", "result"})

	// clausesAdded counts permanent clauses.
	// Labels: backend
	clausesAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "afsolver",
		Subsystem: "oracle",
		Name:      "clauses_total",
		Help:      "Total clauses added to oracles",
	}, []string{"backend"})
)

// instrumented wraps an Oracle with metrics and debug logging.
type instrumented struct {
	Oracle
	backend string
	logger  *slog.Logger
}

func newInstrumented(inner Oracle, backend Backend, logger *slog.Logger) *instrumented {
	return &instrumented{
		Oracle:  inner,
		backend: string(backend),
		logger:  logger.With(slog.String("component", "oracle"), slog.String("backend", string(backend))),
	}
}

// AddClause forwards to the backend and counts the clause.
func (o *instrumented) AddClause(lits ...Lit) error {
	if err := o.Oracle.AddClause(lits...); err != nil {
		return err
	}
	clausesAdded.WithLabelValues(o.backend).Inc()
	return nil
}

// Solve forwards to the backend, then records latency and outcome.
func (o *instrumented) Solve(ctx context.Context, assumptions []Lit) (Status, error) {
	start := time.Now()
	status, err := o.Oracle.Solve(ctx, assumptions)
	elapsed := time.Since(start)

	result := status.String()
	solveLatency.WithLabelValues(o.backend, result).Observe(elapsed.Seconds())
	solveCalls.WithLabelValues(o.backend, result).Inc()

	if o.logger.Enabled(ctx, slog.LevelDebug) {
		st := o.Oracle.Stats()
		o.logger.DebugContext(ctx, "oracle call",
			slog.String("result", result),
			slog.Int("assumptions", len(assumptions)),
			slog.Int("vars", st.Vars),
			slog.Int("clauses", st.Clauses),
			slog.Duration("elapsed", elapsed),
		)
	}
	return status, err
}
