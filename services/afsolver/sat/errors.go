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

import "errors"

var (
	// ErrOracleExhausted is returned when a solve call is cancelled or its
	// budget runs out before an answer is known.
	ErrOracleExhausted = errors.New("oracle exhausted")

	// ErrUnknownLiteral is returned when a clause or assumption references a
	// variable that was never allocated.
	ErrUnknownLiteral = errors.New("unknown literal")

	// ErrEmptyClause is returned when an empty clause is added. An empty
	// clause would make the oracle permanently unsatisfiable.
	ErrEmptyClause = errors.New("empty clause")

	// ErrOracleClosed is returned by operations on a closed oracle.
	ErrOracleClosed = errors.New("oracle closed")

	// ErrUnknownBackend is returned when the configured backend is not known.
	ErrUnknownBackend = errors.New("unknown oracle backend")

	// ErrExternalSolver is returned when an external solver produces output
	// that cannot be interpreted.
	ErrExternalSolver = errors.New("external solver failure")
)
