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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/encoding"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
	"github.com/AleutianAI/afsolver/services/afsolver/search"
)

var tracer = otel.Tracer("afsolver.session")

// Journal durably records session history.
//
// Begin records the base framework of a new session, Append records each
// batch before it is applied, and Drop forgets a deleted session.
type Journal interface {
	Begin(ctx context.Context, sessionID string, base *af.Framework) error
	Append(ctx context.Context, sessionID string, revision uint64, batch Batch) error
	Drop(ctx context.Context, sessionID string) error
}

// Replayer reads back what a Journal recorded.
type Replayer interface {
	Sessions(ctx context.Context) ([]string, error)
	Replay(ctx context.Context, sessionID string) (*af.Framework, []Batch, error)
}

// Config configures a session.
type Config struct {
	Oracle sat.Config
	Query  query.Config

	// Journal, if set, receives every batch before it is applied.
	Journal Journal

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Applied is one entry of the session history.
type Applied struct {
	Revision  uint64    `json:"revision"`
	Batch     Batch     `json:"batch"`
	AppliedAt time.Time `json:"applied_at"`
}

// Info summarizes session state.
type Info struct {
	ID        string    `json:"id"`
	Revision  uint64    `json:"revision"`
	Arguments int       `json:"arguments"`
	Attacks   int       `json:"attacks"`
	Busy      bool      `json:"busy"`
	Oracle    sat.Stats `json:"oracle"`
	Clauses   int       `json:"encoded_clauses"`
	Retired   int       `json:"retired_arguments"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a framework with persistent solving state.
//
// Thread Safety: safe for concurrent use; operations are serialized.
type Session struct {
	mu sync.Mutex

	id      string
	f       *af.Framework
	oracle  sat.Oracle
	enc     *encoding.Encoder
	base    *search.Base
	disp    *query.Dispatcher
	journal Journal
	logger  *slog.Logger

	revision uint64
	history  []Applied
	cache    map[string]query.Result
	created  time.Time

	busy   bool
	failed error
	closed bool
}

// New creates a session over a private copy of f and encodes it.
//
// Description:
//
//	Creates the oracle, allocates literals for every argument and emits the
//	initial clause groups. The caller's framework is not retained.
//
// Inputs:
//
//	id - Session identifier, used in logs and the journal.
//	f - Base framework. Must be valid.
//	cfg - Oracle, query and journal configuration.
//
// Outputs:
//
//	*Session - The ready session at revision 0.
//	error - af.ErrMalformedFramework, sat.ErrUnknownBackend or oracle errors.
func New(id string, f *af.Framework, cfg Config) (*Session, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("session_id", id))

	oc := cfg.Oracle
	if oc.Logger == nil {
		oc.Logger = logger
	}
	oracle, err := sat.New(oc)
	if err != nil {
		return nil, fmt.Errorf("create oracle: %w", err)
	}

	own := f.Clone()
	enc := encoding.NewEncoder(oracle)
	if _, err := enc.Encode(own); err != nil {
		oracle.Close()
		return nil, fmt.Errorf("encode framework: %w", err)
	}
	base := search.NewBase(oracle, enc, own)

	qc := cfg.Query
	if qc.Logger == nil {
		qc.Logger = logger
	}

	s := &Session{
		id:      id,
		f:       own,
		oracle:  oracle,
		enc:     enc,
		base:    base,
		disp:    query.NewDispatcher(base, &qc),
		journal: cfg.Journal,
		logger:  logger.With(slog.String("component", "session")),
		cache:   make(map[string]query.Result),
		created: time.Now(),
	}
	s.logger.Info("session created",
		slog.Int("arguments", own.Len()),
		slog.Int("attacks", own.NumAttacks()),
		slog.Int("clauses", enc.Clauses()))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Revision returns the number of batches applied.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Framework returns a copy of the current framework.
func (s *Session) Framework() *af.Framework {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Clone()
}

// History returns the applied batches in order.
func (s *Session) History() []Applied {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Applied, len(s.history))
	copy(out, s.history)
	return out
}

// Info returns a state summary.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:        s.id,
		Revision:  s.revision,
		Arguments: s.f.Len(),
		Attacks:   s.f.NumAttacks(),
		Busy:      s.busy,
		Oracle:    s.oracle.Stats(),
		Clauses:   s.enc.Clauses(),
		Retired:   s.enc.Mapper().Retired(),
		CreatedAt: s.created,
	}
}

// usable reports why the session cannot serve a request. Caller holds mu.
func (s *Session) usable() error {
	switch {
	case s.closed:
		return ErrSessionClosed
	case s.failed != nil:
		return fmt.Errorf("%w: %v", ErrSessionFailed, s.failed)
	case s.busy:
		return ErrSessionBusy
	}
	return nil
}

// Apply applies a mutation batch atomically.
//
// Description:
//
//	The batch is first replayed on a scratch copy; any malformed mutation
//	rejects the whole batch with no effect. A valid batch is journaled,
//	applied, and translated into an incremental clause delta. The revision
//	increments and cached results are dropped.
//
// Inputs:
//
//	ctx - Used for tracing and the journal.
//	batch - Ordered mutations. An empty batch still bumps the revision.
//
// Outputs:
//
//	uint64 - The new revision.
//	error - af.ErrMalformedFramework, ErrSessionBusy, journal or oracle
//	        errors.
func (s *Session) Apply(ctx context.Context, batch Batch) (uint64, error) {
	ctx, span := tracer.Start(ctx, "Session.Apply",
		trace.WithAttributes(
			attribute.String("session.id", s.id),
			attribute.Int("batch.size", len(batch)),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	rev, err := s.apply(ctx, batch, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return s.revision, err
	}
	span.SetAttributes(attribute.Int64("session.revision", int64(rev)))
	return rev, nil
}

// apply does the work of Apply. Caller holds mu.
func (s *Session) apply(ctx context.Context, batch Batch, journal bool) (uint64, error) {
	if err := s.usable(); err != nil {
		return s.revision, err
	}

	if _, err := applyBatch(s.f.Clone(), batch); err != nil {
		return s.revision, err
	}

	next := s.revision + 1
	if journal && s.journal != nil {
		if err := s.journal.Append(ctx, s.id, next, batch); err != nil {
			return s.revision, fmt.Errorf("journal batch: %w", err)
		}
	}

	eff, err := applyBatch(s.f, batch)
	if err != nil {
		// Unreachable: the scratch run accepted the same batch.
		s.failed = err
		return s.revision, err
	}

	start := time.Now()
	groups, err := s.delta(eff)
	if err != nil {
		s.failed = err
		s.logger.Error("clause delta failed", slog.Uint64("revision", next), slog.String("error", err.Error()))
		return s.revision, fmt.Errorf("%w: %v", ErrSessionFailed, err)
	}

	s.revision = next
	s.history = append(s.history, Applied{Revision: next, Batch: batch, AppliedAt: time.Now()})
	clear(s.cache)

	s.logger.Info("mutation batch applied",
		slog.Uint64("revision", next),
		slog.Int("mutations", len(batch)),
		slog.Int("added", eff.added),
		slog.Int("removed", len(eff.removed)),
		slog.Int("regenerated", groups),
		slog.Duration("elapsed", time.Since(start)))
	return next, nil
}

// delta emits the clause changes for eff. Caller holds mu.
func (s *Session) delta(eff *effect) (int, error) {
	mapper := s.enc.Mapper()
	for _, a := range eff.removed {
		if _, ok := mapper.Lookup(a); !ok {
			continue
		}
		if err := s.enc.Retire(a); err != nil {
			return 0, err
		}
	}
	for a := range eff.dirty {
		if !s.f.HasArgument(a) {
			continue
		}
		if _, ok := mapper.Lookup(a); !ok {
			continue
		}
		if err := s.enc.Invalidate(a); err != nil {
			return 0, err
		}
		s.logger.Debug("clause group invalidated",
			slog.String("argument", string(a)),
			slog.Int("generation", mapper.Generation(a)))
	}
	return s.enc.Encode(s.f)
}

// Query answers q against the current revision.
//
// Description:
//
//	Results are cached per revision, so repeating a query without an
//	intervening mutation returns the identical answer. An oracle failure
//	fails only this query.
func (s *Session) Query(ctx context.Context, q query.Query) (query.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return query.Result{}, err
	}
	key := q.Key()
	if r, ok := s.cache[key]; ok {
		r.Cached = true
		return r, nil
	}

	r, err := s.disp.Run(ctx, q)
	if err != nil {
		return query.Result{}, err
	}
	s.cache[key] = r
	return r, nil
}

// Enumeration is a lazy enumeration bound to a session. The session is busy
// until the enumeration is drained or closed.
type Enumeration struct {
	s      *Session
	e      *search.Enumerator
	done   bool
	closed bool
}

// Enumerate opens a lazy enumeration of sem.
func (s *Session) Enumerate(ctx context.Context, sem query.Semantics) (*Enumeration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return nil, err
	}
	e, err := s.disp.Enumerate(ctx, sem)
	if err != nil {
		return nil, err
	}
	s.busy = true
	return &Enumeration{s: s, e: e}, nil
}

// Next returns the next extension, or ok=false when exhausted.
func (en *Enumeration) Next(ctx context.Context) (af.Extension, bool, error) {
	en.s.mu.Lock()
	defer en.s.mu.Unlock()

	if en.closed {
		return nil, false, search.ErrEnumeratorClosed
	}
	if en.done {
		return nil, false, nil
	}
	ext, ok, err := en.e.Next(ctx)
	if err != nil || !ok {
		en.release()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %v", sat.ErrOracleExhausted, err)
	}
	return ext, ok, err
}

// Close ends the enumeration and frees the session.
func (en *Enumeration) Close() error {
	en.s.mu.Lock()
	defer en.s.mu.Unlock()
	if en.closed {
		return nil
	}
	en.closed = true
	err := en.e.Close()
	en.release()
	return err
}

// release frees the session. Caller holds the session mutex.
func (en *Enumeration) release() {
	if en.done {
		return
	}
	en.done = true
	en.s.busy = false
}

// Restore rebuilds a session from a base framework and its batch history
// without journaling the batches again.
func Restore(ctx context.Context, id string, base *af.Framework, history []Batch, cfg Config) (*Session, error) {
	s, err := New(id, base, cfg)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range history {
		if _, err := s.apply(ctx, b, false); err != nil {
			s.oracle.Close()
			return nil, fmt.Errorf("replay batch %d: %w", i+1, err)
		}
	}
	return s, nil
}

// Close releases the oracle. Further calls fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("session closed", slog.Uint64("revision", s.revision))
	return s.oracle.Close()
}
