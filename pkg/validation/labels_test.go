// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		wantErr bool
	}{
		// Valid labels
		{"number", "17", false},
		{"letters", "arg", false},
		{"underscore start", "_a", false},
		{"dotted", "a.1", false},
		{"hyphen inside", "x-y", false},
		{"max length", strings.Repeat("a", MaxLabelLength), false},

		// Invalid labels
		{"empty", "", true},
		{"too long", strings.Repeat("a", MaxLabelLength+1), true},
		{"space", "a b", true},
		{"comma", "a,b", true},
		{"parenthesis", "a(", true},
		{"leading hyphen", "-a", true},
		{"leading dot", ".a", true},
		{"comment marker", "#1", true},
		{"newline", "a\nb", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabel(tt.label)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLabel)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLabels(t *testing.T) {
	assert.NoError(t, ValidateLabels([]string{"a", "b", "3"}))
	assert.NoError(t, ValidateLabels(nil))

	err := ValidateLabels([]string{"a", "b c", "d", "e,f"})
	assert.ErrorIs(t, err, ErrInvalidLabel)
	assert.Contains(t, err.Error(), `"b c"`)
	assert.Contains(t, err.Error(), `"e,f"`)
	assert.NotContains(t, err.Error(), `"d"`)
}

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, ValidateSessionID(uuid.NewString()))

	for _, id := range []string{"", "s1", "base:x", strings.ToUpper(uuid.NewString()), "{" + uuid.NewString() + "}"} {
		assert.ErrorIs(t, ValidateSessionID(id), ErrInvalidSessionID, id)
	}
}
