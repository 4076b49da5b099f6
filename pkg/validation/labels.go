// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks user-provided identifiers before they reach
// frameworks, mutation scripts, framework files or journal keys.
//
// Argument labels are written back into iccma23, apx and mutation script
// notation, so a label containing whitespace, commas or parentheses would
// not round-trip.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidLabel is returned for an argument label outside the
	// accepted alphabet.
	ErrInvalidLabel = errors.New("invalid argument label")

	// ErrInvalidSessionID is returned for a session id that is not a UUID.
	ErrInvalidSessionID = errors.New("invalid session id")
)

// MaxLabelLength bounds an argument label.
const MaxLabelLength = 128

// labelPattern matches valid argument labels.
// Allows: letters, digits, underscore, hyphen, dot
// Must not start with a hyphen or dot.
var labelPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*$`)

// ValidateLabel validates one argument label.
//
// Valid labels:
//   - 1-128 characters
//   - Letters, digits, '_', '-' and '.'
//   - First character a letter, digit or '_'
//
// Example:
//
//	if err := validation.ValidateLabel(label); err != nil {
//	    return fmt.Errorf("add argument: %w", err)
//	}
func ValidateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("%w: empty", ErrInvalidLabel)
	}
	if len(label) > MaxLabelLength {
		return fmt.Errorf("%w: %d characters exceeds %d", ErrInvalidLabel, len(label), MaxLabelLength)
	}
	if !labelPattern.MatchString(label) {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return nil
}

// ValidateLabels validates every label and reports all invalid ones at once.
func ValidateLabels(labels []string) error {
	var invalid []string
	for _, l := range labels {
		if err := ValidateLabel(l); err != nil {
			invalid = append(invalid, fmt.Sprintf("%q", l))
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidLabel, strings.Join(invalid, ", "))
	}
	return nil
}

// ValidateSessionID checks that id is a canonical UUID as issued by the
// session manager.
func ValidateSessionID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}
