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

import "errors"

var (
	// ErrSessionBusy is returned when a mutation or query arrives while a
	// lazy enumeration is open.
	ErrSessionBusy = errors.New("session busy")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionNotFound is returned by the manager for unknown ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions is returned when the manager is full.
	ErrTooManySessions = errors.New("session limit reached")

	// ErrBadMutation is returned when a mutation cannot be parsed.
	ErrBadMutation = errors.New("bad mutation")

	// ErrSessionFailed is returned after an oracle failure left the clause
	// database out of step with the framework.
	ErrSessionFailed = errors.New("session failed")
)
