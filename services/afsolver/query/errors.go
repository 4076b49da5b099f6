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
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedQuery is returned for a semantics/task combination the
	// dispatcher cannot answer, or a decision query without an argument.
	ErrUnsupportedQuery = errors.New("unsupported query")

	// ErrUnknownArgument is returned when a decision query names an argument
	// that is not in the framework.
	ErrUnknownArgument = errors.New("unknown query argument")

	// ErrBadProblem is returned when a problem descriptor cannot be parsed.
	ErrBadProblem = errors.New("bad problem descriptor")
)

// QueryError wraps a failure with the query that caused it.
type QueryError struct {
	Semantics Semantics
	Task      Task
	Err       error
}

// Error implements error.
func (e *QueryError) Error() string {
	return fmt.Sprintf("%s-%s: %v", e.Task.Code(), e.Semantics.Code(), e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}
