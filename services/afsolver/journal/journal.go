// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package journal persists session history in BadgerDB so sessions survive
// a restart.
//
// Each session stores one base record and one record per applied batch:
//
//	base:{session}              [4-byte CRC32][gob baseRecord]
//	batch:{session}:{rev:016d}  [4-byte CRC32][gob batchRecord]
//
// Batches are written before the session applies them, so replaying the
// base followed by every batch rebuilds the last acknowledged revision.
package journal

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
	"github.com/AleutianAI/afsolver/services/afsolver/storage/badger"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("journal is closed")

	// ErrCorrupted is returned when a record fails its checksum.
	ErrCorrupted = errors.New("journal entry corrupted (CRC mismatch)")

	// ErrSequenceGap is returned when replay finds a missing revision.
	ErrSequenceGap = errors.New("journal revision gap detected")

	// ErrUnknownSession is returned for a session with no base record.
	ErrUnknownSession = errors.New("session not journaled")

	// ErrRevisionConflict is returned when a revision is appended out of
	// order or twice.
	ErrRevisionConflict = errors.New("journal revision conflict")
)

var tracer = otel.Tracer("afsolver.journal")

// baseRecord is the framework a session started from.
type baseRecord struct {
	Arguments []af.Argument
	Attacks   []af.Attack
	CreatedAt time.Time
}

// batchRecord is one applied batch.
type batchRecord struct {
	Revision   uint64
	Batch      session.Batch
	AppendedAt time.Time
}

// Journal implements session.Journal and session.Replayer on BadgerDB.
//
// Thread Safety: safe for concurrent use. Appends for one session are
// serialized by the session itself.
type Journal struct {
	db     *badger.DB
	owned  bool
	logger *slog.Logger
	closed atomic.Bool
}

var (
	_ session.Journal  = (*Journal)(nil)
	_ session.Replayer = (*Journal)(nil)
)

// Open opens a store with cfg and journals into it. Close closes the store.
func Open(cfg badger.Config, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	db, err := badger.Open(cfg)
	if err != nil {
		return nil, err
	}
	j := New(db, logger)
	j.owned = true
	j.logger.Info("journal opened",
		slog.String("path", cfg.Path),
		slog.Bool("in_memory", cfg.InMemory),
		slog.Bool("sync_writes", cfg.SyncWrites))
	return j, nil
}

// New journals into an already open store. Close leaves the store open.
func New(db *badger.DB, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{db: db, logger: logger.With(slog.String("component", "journal"))}
}

func baseKey(id string) []byte {
	return []byte("base:" + id)
}

func batchPrefix(id string) []byte {
	return []byte("batch:" + id + ":")
}

func batchKey(id string, rev uint64) []byte {
	return []byte(fmt.Sprintf("batch:%s:%016d", id, rev))
}

// encode gob-encodes v behind a CRC32 of the payload.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(make([]byte, 4))
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	out := buf.Bytes()
	binary.BigEndian.PutUint32(out[:4], crc32.ChecksumIEEE(out[4:]))
	return out, nil
}

// decode verifies the checksum and gob-decodes into v.
func decode(data []byte, v any) error {
	if len(data) < 5 {
		return fmt.Errorf("%w: entry too short", ErrCorrupted)
	}
	stored := binary.BigEndian.Uint32(data[:4])
	computed := crc32.ChecksumIEEE(data[4:])
	if stored != computed {
		return fmt.Errorf("%w: stored=%08x computed=%08x", ErrCorrupted, stored, computed)
	}
	if err := gob.NewDecoder(bytes.NewReader(data[4:])).Decode(v); err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}
	return nil
}

func (j *Journal) start(ctx context.Context, name, id string) (context.Context, trace.Span, error) {
	if j.closed.Load() {
		return ctx, nil, ErrClosed
	}
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attribute.String("session.id", id)))
	return ctx, span, nil
}

func fail(span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}

// Begin records the base framework of a new session.
func (j *Journal) Begin(ctx context.Context, id string, f *af.Framework) error {
	ctx, span, err := j.start(ctx, "Journal.Begin", id)
	if err != nil {
		return err
	}
	defer span.End()

	data, err := encode(baseRecord{Arguments: f.Arguments(), Attacks: f.Attacks(), CreatedAt: time.Now()})
	if err != nil {
		return fail(span, err, "encode failed")
	}
	err = j.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		if _, err := txn.Get(baseKey(id)); err == nil {
			return fmt.Errorf("%w: session %s already journaled", ErrRevisionConflict, id)
		} else if !errors.Is(err, dgbadger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(baseKey(id), data)
	})
	if err != nil {
		return fail(span, fmt.Errorf("write base: %w", err), "write failed")
	}
	span.SetAttributes(attribute.Int("entry_bytes", len(data)))
	j.logger.Debug("base framework journaled",
		slog.String("session_id", id),
		slog.Int("arguments", f.Len()),
		slog.Int("bytes", len(data)))
	return nil
}

// Append records batch as revision rev of session id.
//
// Description:
//
//	The base record and revision rev-1 must already exist and rev must not,
//	so the stored history is always a contiguous prefix.
//
// Outputs:
//
//	error - ErrUnknownSession, ErrRevisionConflict, ErrClosed or a storage
//	        error. The batch is not recorded on error.
func (j *Journal) Append(ctx context.Context, id string, rev uint64, batch session.Batch) error {
	ctx, span, err := j.start(ctx, "Journal.Append", id)
	if err != nil {
		return err
	}
	defer span.End()
	span.SetAttributes(attribute.Int64("revision", int64(rev)), attribute.Int("batch.size", len(batch)))

	data, err := encode(batchRecord{Revision: rev, Batch: batch, AppendedAt: time.Now()})
	if err != nil {
		return fail(span, err, "encode failed")
	}
	err = j.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		if _, err := txn.Get(baseKey(id)); errors.Is(err, dgbadger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownSession, id)
		} else if err != nil {
			return err
		}
		if rev == 0 {
			return fmt.Errorf("%w: revision 0 is the base", ErrRevisionConflict)
		}
		if rev > 1 {
			if _, err := txn.Get(batchKey(id, rev-1)); errors.Is(err, dgbadger.ErrKeyNotFound) {
				return fmt.Errorf("%w: revision %d before %d", ErrRevisionConflict, rev, rev-1)
			} else if err != nil {
				return err
			}
		}
		if _, err := txn.Get(batchKey(id, rev)); err == nil {
			return fmt.Errorf("%w: revision %d exists", ErrRevisionConflict, rev)
		} else if !errors.Is(err, dgbadger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(batchKey(id, rev), data)
	})
	if err != nil {
		return fail(span, fmt.Errorf("write batch: %w", err), "write failed")
	}
	span.SetAttributes(attribute.Int("entry_bytes", len(data)))
	j.logger.Debug("batch journaled",
		slog.String("session_id", id),
		slog.Uint64("revision", rev),
		slog.Int("mutations", len(batch)),
		slog.Int("bytes", len(data)))
	return nil
}

// Replay returns the base framework and batch history of session id.
func (j *Journal) Replay(ctx context.Context, id string) (*af.Framework, []session.Batch, error) {
	ctx, span, err := j.start(ctx, "Journal.Replay", id)
	if err != nil {
		return nil, nil, err
	}
	defer span.End()

	var base baseRecord
	err = j.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get(baseKey(id))
		if errors.Is(err, dgbadger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownSession, id)
		} else if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decode(val, &base)
		})
	})
	if err != nil {
		return nil, nil, fail(span, fmt.Errorf("read base: %w", err), "read failed")
	}
	f, err := af.Build(base.Arguments, base.Attacks)
	if err != nil {
		return nil, nil, fail(span, fmt.Errorf("rebuild base: %w", err), "bad base")
	}

	var history []session.Batch
	var last uint64
	err = j.db.Scan(ctx, batchPrefix(id), func(_, val []byte) error {
		var rec batchRecord
		if err := decode(val, &rec); err != nil {
			return err
		}
		if rec.Revision != last+1 {
			return fmt.Errorf("%w: expected %d, got %d", ErrSequenceGap, last+1, rec.Revision)
		}
		last = rec.Revision
		history = append(history, rec.Batch)
		return nil
	})
	if err != nil {
		return nil, nil, fail(span, fmt.Errorf("read batches: %w", err), "replay failed")
	}

	span.SetAttributes(attribute.Int64("revision", int64(last)))
	j.logger.Debug("session replayed",
		slog.String("session_id", id),
		slog.Int("arguments", f.Len()),
		slog.Uint64("revision", last))
	return f, history, nil
}

// Sessions lists every journaled session id in key order.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	if j.closed.Load() {
		return nil, ErrClosed
	}
	var ids []string
	err := j.db.Scan(ctx, []byte("base:"), func(key, _ []byte) error {
		ids = append(ids, strings.TrimPrefix(string(key), "base:"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

// Drop deletes every record of session id.
func (j *Journal) Drop(ctx context.Context, id string) error {
	ctx, span, err := j.start(ctx, "Journal.Drop", id)
	if err != nil {
		return err
	}
	defer span.End()

	n, err := j.db.DeletePrefix(ctx, batchPrefix(id))
	if err != nil {
		return fail(span, fmt.Errorf("drop batches: %w", err), "drop failed")
	}
	err = j.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.Delete(baseKey(id))
	})
	if err != nil {
		return fail(span, fmt.Errorf("drop base: %w", err), "drop failed")
	}
	j.logger.Debug("session dropped", slog.String("session_id", id), slog.Int("batches", n))
	return nil
}

// Close closes the journal and, if Open created it, the store.
func (j *Journal) Close() error {
	if j.closed.Swap(true) {
		return nil
	}
	if j.owned {
		return j.db.Close()
	}
	return nil
}

// Location describes where the journal lives: the store directory, or
// "in-memory".
func (j *Journal) Location() string {
	if j.db.InMemory() {
		return "in-memory"
	}
	return j.db.Path()
}
