// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/encoding"
	"github.com/AleutianAI/afsolver/services/afsolver/grounded"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
	"github.com/AleutianAI/afsolver/services/afsolver/search"
)

// Config controls the dispatcher.
type Config struct {
	// Timeout bounds each query. Zero means no bound.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// Logger receives query records. Default: slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns a dispatcher without a query timeout.
func DefaultConfig() Config {
	return Config{}
}

// Dispatcher answers queries over one encoded framework.
//
// Thread Safety: NOT safe for concurrent use. The owning session serializes
// calls.
type Dispatcher struct {
	base    *search.Base
	timeout time.Duration
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher over base. A nil config uses defaults.
func NewDispatcher(base *search.Base, config *Config) *Dispatcher {
	if config == nil {
		c := DefaultConfig()
		config = &c
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		base:    base,
		timeout: config.Timeout,
		logger:  logger.With(slog.String("component", "dispatcher")),
	}
}

// Run answers q.
//
// Description:
//
//	Validates q, applies the query watchdog, and routes to the algorithm
//	for (semantics, task). EnumerateAll collects every extension. A
//	cancelled or timed-out query fails with sat.ErrOracleExhausted and
//	never returns a partial answer.
//
// Inputs:
//
//	ctx - Cancellation.
//	q - The query.
//
// Outputs:
//
//	Result - The answer.
//	error - *QueryError wrapping ErrUnsupportedQuery, ErrUnknownArgument or
//	        sat.ErrOracleExhausted.
func (d *Dispatcher) Run(ctx context.Context, q Query) (res Result, err error) {
	f := d.base.Framework()
	if err := q.Validate(f); err != nil {
		return Result{}, &QueryError{Semantics: q.Semantics, Task: q.Task, Err: err}
	}

	ctx, cancel := d.watchdog(ctx)
	defer cancel()
	ctx, span := startQuerySpan(ctx, q, f.Len())
	defer span.End()

	start := time.Now()
	callsBefore := d.base.Oracle().Stats().Solves
	d.logger.DebugContext(ctx, "query start",
		slog.String("problem", q.Problem()),
		slog.String("argument", string(q.Argument)))

	res = Result{Query: q}
	switch q.Task {
	case ComputeOne:
		res.Extension, res.Found, err = d.ComputeOne(ctx, q.Semantics)
	case EnumerateAll:
		var e *search.Enumerator
		if e, err = d.Enumerate(ctx, q.Semantics); err == nil {
			res.Extensions, err = e.Collect(ctx)
			res.Found = len(res.Extensions) > 0
		}
	case DecideCredulous:
		res.Accepted, res.Witness, res.HasWitness, err = d.Credulous(ctx, q.Semantics, q.Argument, q.Certificate)
	case DecideSkeptical:
		res.Accepted, res.Witness, res.HasWitness, err = d.Skeptical(ctx, q.Semantics, q.Argument, q.Certificate)
	}
	res.Elapsed = time.Since(start)
	calls := d.base.Oracle().Stats().Solves - callsBefore

	recordQueryMetrics(ctx, q, res.Elapsed, calls, err == nil)
	if err != nil {
		err = exhausted(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, sat.ErrOracleExhausted) {
			d.logger.WarnContext(ctx, "query exhausted",
				slog.String("problem", q.Problem()),
				slog.Duration("elapsed", res.Elapsed))
		}
		return Result{}, &QueryError{Semantics: q.Semantics, Task: q.Task, Err: err}
	}

	setQuerySpanResult(span, res, calls)
	d.logger.DebugContext(ctx, "query done",
		slog.String("problem", q.Problem()),
		slog.Int("oracle_calls", calls),
		slog.Duration("elapsed", res.Elapsed))
	return res, nil
}

func (d *Dispatcher) watchdog(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout > 0 {
		return context.WithTimeout(ctx, d.timeout)
	}
	return ctx, func() {}
}

// exhausted maps context expiry to sat.ErrOracleExhausted.
func exhausted(err error) error {
	if errors.Is(err, sat.ErrOracleExhausted) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", sat.ErrOracleExhausted, err)
	}
	return err
}

// Grounded returns the grounded labelling of the framework.
func (d *Dispatcher) Grounded(ctx context.Context) (grounded.Result, error) {
	g, err := grounded.Compute(ctx, d.base.Framework())
	if err != nil {
		return g, err
	}
	d.logger.DebugContext(ctx, "grounded fixpoint",
		slog.Int("accepted", len(g.Extension)),
		slog.Int("rejected", len(g.Rejected)),
		slog.Int("rounds", g.Rounds))
	return g, nil
}

// observe returns an observer that logs each improving step of the named
// search and counts steps into n.
func (d *Dispatcher) observe(ctx context.Context, name string, n *int) search.Observer {
	return func(step int, m search.Model) bool {
		*n = step
		d.logger.DebugContext(ctx, "improved",
			slog.String("search", name),
			slog.Int("step", step),
			slog.Int("in", len(m.In)),
			slog.Int("range", len(m.Range)))
		return true
	}
}

// optimize runs an observed extremal search on s.
func (d *Dispatcher) optimize(ctx context.Context, s *search.Scope, name string, req search.Extremal) (search.Model, bool, error) {
	steps := 0
	req.Observer = d.observe(ctx, name, &steps)
	m, ok, err := s.Optimize(ctx, req)
	if err == nil && ok {
		d.logger.DebugContext(ctx, "extremal search done",
			slog.String("search", name),
			slog.Int("steps", steps))
	}
	return m, ok, err
}

// improve grows seed with an observed extremal search on s.
func (d *Dispatcher) improve(ctx context.Context, s *search.Scope, name string, req search.Extremal, seed search.Model) (search.Model, error) {
	steps := 0
	req.Observer = d.observe(ctx, name, &steps)
	m, err := s.Improve(ctx, req, seed)
	if err == nil {
		d.logger.DebugContext(ctx, "extremal search done",
			slog.String("search", name),
			slog.Int("steps", steps))
	}
	return m, err
}

// ComputeOne returns one extension of sem, if any exists.
func (d *Dispatcher) ComputeOne(ctx context.Context, sem Semantics) (af.Extension, bool, error) {
	switch sem {
	case Grounded:
		g, err := d.Grounded(ctx)
		return g.Extension, err == nil, err
	case Ideal:
		ext, err := d.Ideal(ctx)
		return ext, err == nil, err
	}

	s := d.base.Scope()
	defer s.Close()

	switch sem {
	case Complete:
		m, ok, err := s.Find(ctx, encoding.ProfileComplete)
		return m.In, ok, err
	case Stable:
		m, ok, err := s.Find(ctx, encoding.ProfileStable)
		return m.In, ok, err
	case Preferred:
		m, ok, err := d.optimize(ctx, s, "preferred", search.Extremal{
			Profile:   encoding.ProfileComplete,
			Target:    search.TargetIn,
			Direction: search.Maximize,
		})
		return m.In, ok, err
	case SemiStable, Stage:
		m, ok, err := d.optimize(ctx, s, sem.String(), search.Extremal{
			Profile:   rangeProfile(sem),
			Target:    search.TargetRange,
			Direction: search.Maximize,
		})
		return m.In, ok, err
	}
	return nil, false, fmt.Errorf("%w: SE-%s", ErrUnsupportedQuery, sem.Code())
}

// Enumerate opens a lazy enumerator over the extensions of sem. The caller
// must drain or close it before issuing other queries.
func (d *Dispatcher) Enumerate(ctx context.Context, sem Semantics) (*search.Enumerator, error) {
	switch sem {
	case Grounded:
		g, err := d.Grounded(ctx)
		if err != nil {
			return nil, err
		}
		return search.Fixed(g.Extension), nil
	case Ideal:
		ext, err := d.Ideal(ctx)
		if err != nil {
			return nil, err
		}
		return search.Fixed(ext), nil
	case Complete:
		return d.base.Enumerate(search.ModeModels, encoding.ProfileComplete), nil
	case Stable:
		return d.base.Enumerate(search.ModeModels, encoding.ProfileStable), nil
	case Preferred:
		return d.base.Enumerate(search.ModeMaximal, encoding.ProfileComplete), nil
	case SemiStable, Stage:
		return d.base.Enumerate(search.ModeRange, rangeProfile(sem)), nil
	}
	return nil, fmt.Errorf("%w: EE-%s", ErrUnsupportedQuery, sem.Code())
}

// rangeProfile returns the base profile of a range-maximal semantics.
func rangeProfile(sem Semantics) encoding.Profile {
	if sem == Stage {
		return encoding.ProfileConflictFree
	}
	return encoding.ProfileComplete
}
