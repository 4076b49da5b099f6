// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/format"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
)

// Process exit codes. A NO answer is a normal result and exits 0.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInput       = 3
	ExitUnsupported = 4
	ExitExhausted   = 5
)

// exitCode maps an error returned by a command to a process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errUsage), errors.Is(err, query.ErrBadProblem), errors.Is(err, format.ErrUnknownFormat):
		return ExitUsage
	case errors.Is(err, format.ErrParse), errors.Is(err, af.ErrMalformedFramework),
		errors.Is(err, session.ErrBadMutation), errors.Is(err, format.ErrUnsupportedLabels):
		return ExitInput
	case errors.Is(err, query.ErrUnsupportedQuery), errors.Is(err, query.ErrUnknownArgument):
		return ExitUnsupported
	case errors.Is(err, sat.ErrOracleExhausted):
		return ExitExhausted
	}
	return ExitFailure
}

// errUsage marks a command line the user has to fix.
var errUsage = errors.New("usage")
