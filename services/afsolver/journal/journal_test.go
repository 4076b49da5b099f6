// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package journal

import (
	"context"
	"testing"

	dgbadger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
	"github.com/AleutianAI/afsolver/services/afsolver/storage/badger"
)

func newTestJournal(t *testing.T) (*Journal, *badger.DB) {
	t.Helper()
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, nil), db
}

func baseFramework(t *testing.T) *af.Framework {
	t.Helper()
	f, err := af.Build([]af.Argument{"a", "b"}, []af.Attack{{From: "a", To: "b"}})
	require.NoError(t, err)
	return f
}

// TestJournal_AppendReplay verifies history round-trips in order.
func TestJournal_AppendReplay(t *testing.T) {
	ctx := context.Background()
	j, _ := newTestJournal(t)
	assert.Equal(t, "in-memory", j.Location())

	require.NoError(t, j.Begin(ctx, "s1", baseFramework(t)))
	b1 := session.Batch{session.AddArgument("c"), session.AddAttack("c", "a")}
	b2 := session.Batch{session.RemoveAttack("a", "b")}
	require.NoError(t, j.Append(ctx, "s1", 1, b1))
	require.NoError(t, j.Append(ctx, "s1", 2, b2))

	f, history, err := j.Replay(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []af.Argument{"a", "b"}, f.Arguments())
	assert.True(t, f.HasAttack("a", "b"))
	assert.Equal(t, []session.Batch{b1, b2}, history)

	ids, err := j.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

// TestJournal_Conflicts verifies out-of-order and unknown appends fail.
func TestJournal_Conflicts(t *testing.T) {
	ctx := context.Background()
	j, _ := newTestJournal(t)
	batch := session.Batch{session.AddArgument("x")}

	assert.ErrorIs(t, j.Append(ctx, "nope", 1, batch), ErrUnknownSession)

	require.NoError(t, j.Begin(ctx, "s", baseFramework(t)))
	assert.ErrorIs(t, j.Begin(ctx, "s", baseFramework(t)), ErrRevisionConflict)
	assert.ErrorIs(t, j.Append(ctx, "s", 0, batch), ErrRevisionConflict)
	assert.ErrorIs(t, j.Append(ctx, "s", 2, batch), ErrRevisionConflict)
	require.NoError(t, j.Append(ctx, "s", 1, batch))
	assert.ErrorIs(t, j.Append(ctx, "s", 1, batch), ErrRevisionConflict)

	_, _, err := j.Replay(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

// TestJournal_Integrity verifies checksum and gap detection on replay.
func TestJournal_Integrity(t *testing.T) {
	ctx := context.Background()
	j, db := newTestJournal(t)
	require.NoError(t, j.Begin(ctx, "s", baseFramework(t)))
	for i, a := range []af.Argument{"c", "d", "e"} {
		require.NoError(t, j.Append(ctx, "s", uint64(i+1), session.Batch{session.AddArgument(a)}))
	}

	require.NoError(t, db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.Delete(batchKey("s", 2))
	}))
	_, _, err := j.Replay(ctx, "s")
	assert.ErrorIs(t, err, ErrSequenceGap)

	require.NoError(t, db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.Set(batchKey("s", 2), []byte{0, 0, 0, 0, 1, 2, 3})
	}))
	_, _, err = j.Replay(ctx, "s")
	assert.ErrorIs(t, err, ErrCorrupted)
}

// TestJournal_Drop verifies a dropped session leaves no records.
func TestJournal_Drop(t *testing.T) {
	ctx := context.Background()
	j, _ := newTestJournal(t)
	require.NoError(t, j.Begin(ctx, "s", baseFramework(t)))
	require.NoError(t, j.Begin(ctx, "t", baseFramework(t)))
	require.NoError(t, j.Append(ctx, "s", 1, session.Batch{session.AddArgument("c")}))

	require.NoError(t, j.Drop(ctx, "s"))
	_, _, err := j.Replay(ctx, "s")
	assert.ErrorIs(t, err, ErrUnknownSession)
	ids, err := j.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, ids)

	require.NoError(t, j.Close())
	assert.ErrorIs(t, j.Begin(ctx, "u", baseFramework(t)), ErrClosed)
	_, err = j.Sessions(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

// TestJournal_ManagerRecovery verifies a manager rebuilds journaled
// sessions from a persistent store after a restart.
func TestJournal_ManagerRecovery(t *testing.T) {
	ctx := context.Background()
	cfg := badger.DefaultConfig()
	cfg.Path = t.TempDir()
	cfg.GCInterval = 0

	j, err := Open(cfg, nil)
	require.NoError(t, err)
	m := session.NewManager(session.Config{Journal: j}, 0)
	s, err := m.Create(ctx, baseFramework(t))
	require.NoError(t, err)
	_, err = s.Apply(ctx, session.Batch{session.AddArgument("c"), session.AddAttack("c", "a")})
	require.NoError(t, err)
	want, err := s.Query(ctx, query.Query{Semantics: query.Preferred, Task: query.EnumerateAll})
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, j.Close())

	j, err = Open(cfg, nil)
	require.NoError(t, err)
	defer j.Close()
	m = session.NewManager(session.Config{Journal: j}, 0)
	defer m.Close()
	n, err := m.Recover(ctx, j)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	back, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), back.Revision())
	got, err := back.Query(ctx, query.Query{Semantics: query.Preferred, Task: query.EnumerateAll})
	require.NoError(t, err)
	assert.ElementsMatch(t, want.Extensions, got.Extensions)

	// Appends continue from the recovered revision.
	_, err = back.Apply(ctx, session.Batch{session.RemoveArgument("c")})
	require.NoError(t, err)
}
