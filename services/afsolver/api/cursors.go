// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
)

// ErrCursorNotFound is returned for unknown, expired or in-use cursors.
var ErrCursorNotFound = errors.New("cursor not found")

// cursor is an open enumeration served page by page. Its session stays busy
// until the cursor is drained, released or expires.
type cursor struct {
	id        string
	sessionID string
	semantics query.Semantics
	en        *session.Enumeration
	served    int
	lastUsed  time.Time
}

// cursors holds open enumerations between requests.
//
// A cursor is removed from the registry while a request uses it, so two
// requests never advance the same enumeration.
//
// Thread Safety: safe for concurrent use.
type cursors struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	open   map[string]*cursor
	logger *slog.Logger
}

func newCursors(ttl time.Duration, logger *slog.Logger) *cursors {
	return &cursors{
		ttl:    ttl,
		now:    time.Now,
		open:   make(map[string]*cursor),
		logger: logger,
	}
}

// newCursor wraps a fresh enumeration in a cursor that is not yet registered.
func newCursor(sessionID string, sem query.Semantics, en *session.Enumeration) *cursor {
	return &cursor{id: uuid.NewString(), sessionID: sessionID, semantics: sem, en: en}
}

// take removes the cursor id of sessionID from the registry for exclusive use.
func (cs *cursors) take(id, sessionID string) (*cursor, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cur, ok := cs.open[id]
	if !ok || cur.sessionID != sessionID {
		return nil, ErrCursorNotFound
	}
	delete(cs.open, id)
	return cur, nil
}

// park registers cur until its next page is requested.
func (cs *cursors) park(cur *cursor) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cur.lastUsed = cs.now()
	cs.open[cur.id] = cur
}

// release closes cur, freeing its session.
func (cs *cursors) release(cur *cursor) {
	if err := cur.en.Close(); err != nil {
		cs.logger.Debug("close enumeration",
			slog.String("cursor", cur.id),
			slog.String("error", err.Error()))
	}
}

// sweep releases cursors idle for longer than the TTL. A non-positive TTL
// keeps cursors until they are drained or released.
func (cs *cursors) sweep() int {
	if cs.ttl <= 0 {
		return 0
	}
	cs.mu.Lock()
	cutoff := cs.now().Add(-cs.ttl)
	var expired []*cursor
	for id, cur := range cs.open {
		if cur.lastUsed.Before(cutoff) {
			expired = append(expired, cur)
			delete(cs.open, id)
		}
	}
	cs.mu.Unlock()

	for _, cur := range expired {
		cs.logger.Info("cursor expired",
			slog.String("cursor", cur.id),
			slog.String("session_id", cur.sessionID),
			slog.Int("served", cur.served))
		cs.release(cur)
	}
	return len(expired)
}

// dropSession releases every cursor of sessionID.
func (cs *cursors) dropSession(sessionID string) {
	cs.mu.Lock()
	var dropped []*cursor
	for id, cur := range cs.open {
		if cur.sessionID == sessionID {
			dropped = append(dropped, cur)
			delete(cs.open, id)
		}
	}
	cs.mu.Unlock()
	for _, cur := range dropped {
		cs.release(cur)
	}
}

// closeAll releases every cursor.
func (cs *cursors) closeAll() {
	cs.mu.Lock()
	all := make([]*cursor, 0, len(cs.open))
	for id, cur := range cs.open {
		all = append(all, cur)
		delete(cs.open, id)
	}
	cs.mu.Unlock()
	for _, cur := range all {
		cs.release(cur)
	}
}
