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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	// Global is the loaded configuration.
	Global AfsolverConfig
	once   sync.Once
	// onceErr holds the result of the first Load.
	onceErr error
)

// EnvPath overrides the default config location.
const EnvPath = "AFSOLVER_CONFIG"

// Load reads the config once into Global. An empty path resolves to
// $AFSOLVER_CONFIG, then ~/.afsolver/afsolver.yaml, which is created with
// defaults on first run.
func Load(path string) error {
	once.Do(func() {
		var cfg AfsolverConfig
		cfg, onceErr = LoadFile(path)
		if onceErr == nil {
			Global = cfg
		}
	})
	return onceErr
}

// LoadFile reads and validates a config without touching Global.
//
// Description:
//
//	Missing fields keep their DefaultConfig values since the file is
//	decoded over a populated default struct.
//
// Outputs:
//
//	AfsolverConfig - Decoded configuration.
//	error - Read, decode, or validation failure.
func LoadFile(path string) (AfsolverConfig, error) {
	cfg := DefaultConfig()
	resolved, explicit, err := resolvePath(path)
	if err != nil {
		return cfg, err
	}
	if _, err := os.Stat(resolved); errors.Is(err, os.ErrNotExist) {
		if explicit {
			return cfg, fmt.Errorf("config file %s: %w", resolved, err)
		}
		if err := createDefault(resolved); err != nil {
			return cfg, err
		}
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", resolved, err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks struct tags across every section.
func Validate(cfg AfsolverConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, bool, error) {
	if path != "" {
		return ExpandPath(path), true, nil
	}
	if env := os.Getenv(EnvPath); env != "" {
		return ExpandPath(env), true, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".afsolver", "afsolver.yaml"), false, nil
}

// ExpandPath resolves a leading ~/ against the home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
