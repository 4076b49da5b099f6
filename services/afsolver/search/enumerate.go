// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/encoding"
)

// Mode selects an enumeration strategy.
type Mode int

const (
	// ModeModels yields every model of the profile.
	ModeModels Mode = iota

	// ModeMaximal yields the subset-maximal accepted sets of the profile.
	ModeMaximal

	// ModeRange yields the models whose range is subset-maximal.
	ModeRange
)

// Enumerator yields extensions lazily, without duplicates.
//
// An Enumerator is finite and non-restartable. It releases its scope when
// exhausted or closed; callers that stop early must call Close.
//
// Thread Safety: NOT safe for concurrent use.
type Enumerator struct {
	scope   *Scope
	inner   *Scope
	mode    Mode
	profile encoding.Profile

	class  af.Extension
	fixed  []af.Extension
	count  int
	done   bool
	closed bool
}

// Enumerate opens an enumerator over b.
func (b *Base) Enumerate(mode Mode, p encoding.Profile) *Enumerator {
	return &Enumerator{
		scope:   b.Scope(),
		mode:    mode,
		profile: p,
	}
}

// Fixed returns an enumerator over a precomputed list of extensions.
func Fixed(exts ...af.Extension) *Enumerator {
	return &Enumerator{fixed: exts}
}

// Count returns how many extensions were yielded so far.
func (e *Enumerator) Count() int {
	return e.count
}

// Next returns the next extension, or ok=false once exhausted.
//
// Description:
//
//	An oracle error ends the enumeration; the enumerator is closed and the
//	error returned. Extensions already yielded remain valid.
func (e *Enumerator) Next(ctx context.Context) (ext af.Extension, ok bool, err error) {
	if e.closed {
		return nil, false, ErrEnumeratorClosed
	}
	if e.done {
		return nil, false, nil
	}

	if e.scope == nil {
		if e.count >= len(e.fixed) {
			return nil, false, e.finish()
		}
		ext = e.fixed[e.count]
		e.count++
		return ext, true, nil
	}

	switch e.mode {
	case ModeMaximal:
		ext, ok, err = e.nextMaximal(ctx)
	case ModeRange:
		ext, ok, err = e.nextRange(ctx)
	default:
		ext, ok, err = e.nextModel(ctx)
	}
	if err != nil {
		_ = e.Close()
		return nil, false, err
	}
	if !ok {
		return nil, false, e.finish()
	}
	e.count++
	return ext, true, nil
}

func (e *Enumerator) nextModel(ctx context.Context) (af.Extension, bool, error) {
	m, ok, err := e.scope.Find(ctx, e.profile)
	if err != nil || !ok {
		return nil, false, err
	}
	return m.In, true, e.scope.BlockExact(m.In)
}

func (e *Enumerator) nextMaximal(ctx context.Context) (af.Extension, bool, error) {
	m, ok, err := e.scope.Optimize(ctx, Extremal{
		Profile:   e.profile,
		Target:    TargetIn,
		Direction: Maximize,
	})
	if err != nil || !ok {
		return nil, false, err
	}
	return m.In, true, e.scope.BlockSubsets(TargetIn, m.In)
}

func (e *Enumerator) nextRange(ctx context.Context) (af.Extension, bool, error) {
	for {
		if e.inner == nil {
			m, ok, err := e.scope.Optimize(ctx, Extremal{
				Profile:   e.profile,
				Target:    TargetRange,
				Direction: Maximize,
			})
			if err != nil || !ok {
				return nil, false, err
			}
			e.class = m.Range
			e.inner = e.scope.Child()
			if err := e.inner.Pin(TargetRange, m.Range); err != nil {
				return nil, false, err
			}
		}

		m, ok, err := e.inner.Find(ctx, e.profile)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return m.In, true, e.inner.BlockExact(m.In)
		}
		if err := e.inner.Close(); err != nil {
			return nil, false, err
		}
		e.inner = nil
		// Later classes must reach outside this range.
		if err := e.scope.BlockSubsets(TargetRange, e.class); err != nil {
			return nil, false, err
		}
	}
}

func (e *Enumerator) finish() error {
	e.done = true
	return e.release()
}

func (e *Enumerator) release() error {
	var err error
	if e.inner != nil {
		err = e.inner.Close()
		e.inner = nil
	}
	if e.scope != nil {
		if cerr := e.scope.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Close releases the enumerator's scope. Closing twice is a no-op.
func (e *Enumerator) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.done = true
	return e.release()
}

// Collect drains the enumerator.
func (e *Enumerator) Collect(ctx context.Context) ([]af.Extension, error) {
	var out []af.Extension
	for {
		ext, ok, err := e.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, e.Close()
		}
		out = append(out, ext)
	}
}
