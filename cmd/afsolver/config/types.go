// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"time"

	"github.com/AleutianAI/afsolver/services/afsolver/sat"
	"github.com/AleutianAI/afsolver/services/afsolver/storage/badger"
	"github.com/AleutianAI/afsolver/services/afsolver/telemetry"
)

// AfsolverConfig is the on-disk configuration for the afsolver CLI.
type AfsolverConfig struct {
	Oracle    sat.Config       `yaml:"oracle"`
	Query     QueryConfig      `yaml:"query"`
	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Server    ServerConfig     `yaml:"server"`
	Journal   JournalConfig    `yaml:"journal"`
	Batch     BatchConfig      `yaml:"batch"`
}

// QueryConfig bounds individual queries.
type QueryConfig struct {
	// Timeout for a single query. Zero disables the bound.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// LoggingConfig mirrors logging.Config in yaml form.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir    string `yaml:"dir"`
	Format string `yaml:"format" validate:"omitempty,oneof=auto text json"`
}

// ServerConfig configures "afsolver serve".
type ServerConfig struct {
	Address string `yaml:"address" validate:"required"`

	// RateLimit is requests per second across all clients. Zero disables.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `yaml:"burst" validate:"gte=0"`

	MaxSessions  int `yaml:"max_sessions" validate:"gte=0"`
	MaxArguments int `yaml:"max_arguments" validate:"gte=0"`
	PageSize     int `yaml:"page_size" validate:"gte=0"`

	// CursorTTL releases enumeration cursors idle for longer. Negative keeps
	// them until drained or released.
	CursorTTL time.Duration `yaml:"cursor_ttl"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// JournalConfig enables the persistent session journal.
type JournalConfig struct {
	Enabled bool          `yaml:"enabled"`
	Store   badger.Config `yaml:"store"`
}

// BatchConfig configures "afsolver batch".
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" validate:"gte=0"`
}
