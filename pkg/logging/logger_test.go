// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)

	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

// TestNew_ConsoleFormat verifies format selection and level filtering.
func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Service: "svc", Output: &buf})
	l.Slog().Info("hidden")
	l.Slog().Warn("shown", "k", 1)

	// A bytes.Buffer is not a terminal, so auto picks JSON.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "svc", rec["service"])

	buf.Reset()
	l = New(Config{Format: FormatText, Output: &buf})
	l.Slog().Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}

// TestNew_FileSink verifies records reach the dated JSON file.
func TestNew_FileSink(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	l := New(Config{LogDir: dir, Service: "afsolver", Output: &console})
	l.Slog().Info("to both", "n", 2)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	path := l.FilePath()
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "afsolver_"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"msg\":\"to both\"")
	assert.Contains(t, console.String(), "to both")
}

// TestNew_Quiet verifies the console sink can be dropped.
func TestNew_Quiet(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Quiet: true, Output: &buf})
	l.Slog().Error("nowhere")
	assert.Empty(t, buf.String())
	assert.Empty(t, l.FilePath())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs"), expandPath("~/logs"))
	assert.Equal(t, "/var/log", expandPath("/var/log"))
}
