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

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() AfsolverConfig {
	store := badger.DefaultConfig()
	store.Path = "~/.afsolver/journal"
	return AfsolverConfig{
		Oracle: sat.DefaultConfig(),
		Query:  QueryConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Telemetry: telemetry.DefaultConfig(),
		Server: ServerConfig{
			Address:         ":8085",
			RateLimit:       50,
			Burst:           100,
			MaxSessions:     256,
			MaxArguments:    100000,
			PageSize:        100,
			CursorTTL:       time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Journal: JournalConfig{
			Enabled: false,
			Store:   store,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
	}
}
