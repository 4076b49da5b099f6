// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	assert.False(t, p.Styled())

	p.Title("afsolver")
	p.Success("listening")
	p.Warning("journal disabled")
	p.Error("boom")
	p.Field("backend", "gini")
	p.Field("sessions", 3)

	want := "OK: listening\n" +
		"WARN: journal disabled\n" +
		"ERROR: boom\n" +
		"backend: gini\n" +
		"sessions: 3\n"
	assert.Equal(t, want, buf.String())
}

func TestPrinter_Styled(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{w: &buf, styled: true}

	p.Title("afsolver")
	p.Error("boom")
	p.Field("backend", "gini")

	out := buf.String()
	assert.Contains(t, out, "afsolver")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "backend:")
	assert.NotContains(t, out, "ERROR:")
}

func TestIcon_Render(t *testing.T) {
	assert.Contains(t, IconSuccess.Render(), string(IconSuccess))
	assert.Equal(t, "x", Icon("x").Render())
}
