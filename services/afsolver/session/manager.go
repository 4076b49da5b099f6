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
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
)

// Manager tracks live sessions by id.
//
// Sessions are built outside the registry lock; a reservation taken first
// keeps concurrent creations within the session limit.
//
// Thread Safety: safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	pending  int
	closed   bool
	cfg      Config
	max      int
	logger   *slog.Logger
}

// NewManager creates a manager. max bounds the number of live sessions;
// zero means unbounded.
func NewManager(cfg Config, max int) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		max:      max,
		logger:   logger.With(slog.String("component", "session_manager")),
	}
}

// reserve claims a slot for a session about to be built.
func (m *Manager) reserve() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrSessionClosed
	}
	if m.max > 0 && len(m.sessions)+m.pending >= m.max {
		return ErrTooManySessions
	}
	m.pending++
	return nil
}

// unreserve returns a slot whose session was never built.
func (m *Manager) unreserve() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending--
}

// register turns a reservation into a live session. It fails once the
// manager is closed.
func (m *Manager) register(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending--
	if m.closed {
		return ErrSessionClosed
	}
	m.sessions[s.ID()] = s
	return nil
}

// Create starts a session over f with a fresh id. With a journal
// configured, the base framework is recorded before the session is
// registered.
func (m *Manager) Create(ctx context.Context, f *af.Framework) (*Session, error) {
	if err := m.reserve(); err != nil {
		return nil, err
	}
	s, err := New(uuid.NewString(), f, m.cfg)
	if err != nil {
		m.unreserve()
		return nil, err
	}
	if m.cfg.Journal != nil {
		if err := m.cfg.Journal.Begin(ctx, s.ID(), f); err != nil {
			m.unreserve()
			s.Close()
			return nil, fmt.Errorf("journal base framework: %w", err)
		}
	}
	if err := m.register(s); err != nil {
		if m.cfg.Journal != nil {
			_ = m.cfg.Journal.Drop(ctx, s.ID())
		}
		s.Close()
		return nil, err
	}
	return s, nil
}

// Recover restores every session rp knows about and registers it.
//
// Description:
//
//	Sessions that fail to replay are logged and skipped so one damaged
//	history does not block the others. Once the session limit is reached
//	the remaining sessions stay in the journal for a later recovery.
//
// Outputs:
//
//	int - Number of sessions restored.
//	error - Non-nil only if the session list cannot be read.
func (m *Manager) Recover(ctx context.Context, rp Replayer) (int, error) {
	ids, err := rp.Sessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list journaled sessions: %w", err)
	}
	restored := 0
	for i, id := range ids {
		if err := m.reserve(); err != nil {
			m.logger.Warn("session recovery stopped",
				slog.Int("left_in_journal", len(ids)-i),
				slog.String("error", err.Error()))
			break
		}
		base, history, err := rp.Replay(ctx, id)
		if err == nil {
			var s *Session
			s, err = Restore(ctx, id, base, history, m.cfg)
			if err == nil {
				if err = m.register(s); err == nil {
					restored++
					continue
				}
				s.Close()
				break
			}
		}
		m.unreserve()
		m.logger.Warn("session recovery failed",
			slog.String("session_id", id),
			slog.String("error", err.Error()))
	}
	m.logger.Info("sessions recovered", slog.Int("restored", restored), slog.Int("journaled", len(ids)))
	return restored, nil
}

// Adopt registers an existing session, e.g. one restored from a journal.
// It fails with ErrTooManySessions when the manager is full.
func (m *Manager) Adopt(s *Session) error {
	if err := m.reserve(); err != nil {
		return err
	}
	return m.register(s)
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete closes and forgets the session with id, including its journal.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if m.cfg.Journal != nil {
		if err := m.cfg.Journal.Drop(ctx, id); err != nil {
			m.logger.Warn("journal drop failed", slog.String("session_id", id), slog.String("error", err.Error()))
		}
	}
	return s.Close()
}

// List returns the ids of live sessions in sorted order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes every session. Journaled history is kept for Recover.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	var firstErr error
	for id, s := range m.sessions {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.sessions, id)
	}
	m.logger.Info("session manager closed")
	return firstErr
}
