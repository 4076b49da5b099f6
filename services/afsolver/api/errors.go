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
	"net/http"

	"github.com/AleutianAI/afsolver/pkg/validation"
	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/format"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
)

var (
	// ErrFrameworkInput is returned when a request gives a framework both as
	// content and as argument lists.
	ErrFrameworkInput = errors.New("framework must be given as content or as lists, not both")

	// ErrFrameworkTooLarge is returned above the configured argument limit.
	ErrFrameworkTooLarge = errors.New("framework exceeds argument limit")
)

// statusFor maps an error to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, format.ErrParse), errors.Is(err, format.ErrUnknownFormat), errors.Is(err, ErrFrameworkInput):
		return http.StatusBadRequest, "INVALID_FRAMEWORK"
	case errors.Is(err, validation.ErrInvalidLabel):
		return http.StatusBadRequest, "INVALID_LABEL"
	case errors.Is(err, ErrFrameworkTooLarge):
		return http.StatusRequestEntityTooLarge, "FRAMEWORK_TOO_LARGE"
	case errors.Is(err, query.ErrBadProblem):
		return http.StatusBadRequest, "INVALID_PROBLEM"
	case errors.Is(err, session.ErrBadMutation):
		return http.StatusBadRequest, "INVALID_MUTATION"
	case errors.Is(err, af.ErrMalformedFramework):
		return http.StatusUnprocessableEntity, "MALFORMED_FRAMEWORK"
	case errors.Is(err, query.ErrUnknownArgument):
		return http.StatusUnprocessableEntity, "UNKNOWN_ARGUMENT"
	case errors.Is(err, query.ErrUnsupportedQuery):
		return http.StatusUnprocessableEntity, "UNSUPPORTED_QUERY"
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, ErrCursorNotFound):
		return http.StatusNotFound, "CURSOR_NOT_FOUND"
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusGone, "SESSION_CLOSED"
	case errors.Is(err, session.ErrSessionBusy):
		return http.StatusConflict, "SESSION_BUSY"
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusTooManyRequests, "TOO_MANY_SESSIONS"
	case errors.Is(err, sat.ErrOracleExhausted):
		return http.StatusServiceUnavailable, "ORACLE_EXHAUSTED"
	case errors.Is(err, session.ErrSessionFailed):
		return http.StatusInternalServerError, "SESSION_FAILED"
	}
	return http.StatusInternalServerError, "INTERNAL"
}
