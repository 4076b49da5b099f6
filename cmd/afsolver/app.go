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
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/afsolver/cmd/afsolver/config"
	"github.com/AleutianAI/afsolver/pkg/logging"
	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/format"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
)

var (
	cfg    config.AfsolverConfig
	logger *logging.Logger
)

// setupApp loads the config file, applies flag overrides and installs the
// process logger.
func setupApp(cmd *cobra.Command, args []string) error {
	if err := config.Load(configPath); err != nil {
		return err
	}
	cfg = config.Global
	if err := applyOverrides(&cfg); err != nil {
		return err
	}

	level := logging.LevelInfo
	if cfg.Logging.Level != "" {
		parsed, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		level = parsed
	}
	logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "afsolver",
		Format:  logging.Format(cfg.Logging.Format),
		Output:  cmd.ErrOrStderr(),
	})
	slog.SetDefault(logger.Slog())
	return nil
}

// applyOverrides copies explicitly set persistent flags over c.
func applyOverrides(c *config.AfsolverConfig) error {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logDir != "" {
		c.Logging.Dir = logDir
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if backend != "" {
		c.Oracle.Backend = sat.Backend(backend)
	}
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("%w: --timeout: %v", errUsage, err)
		}
		c.Query.Timeout = d
	}
	if err := config.Validate(*c); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func closeApp() {
	if logger != nil {
		_ = logger.Close()
	}
}

// sessionConfig builds the per-session configuration from c.
func sessionConfig(c config.AfsolverConfig, log *slog.Logger) session.Config {
	oracle := c.Oracle
	oracle.Logger = log
	return session.Config{
		Oracle: oracle,
		Query:  query.Config{Timeout: c.Query.Timeout, Logger: log},
		Logger: log,
	}
}

// appLogger returns the process logger, or slog.Default before setup.
func appLogger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger.Slog()
}

// loadFramework reads path in the named format, detecting it from the file
// extension when name is empty.
func loadFramework(path, name string) (*af.Framework, format.Format, error) {
	if path == "" {
		return nil, "", fmt.Errorf("%w: a framework file is required (-f)", errUsage)
	}
	f := format.Detect(path)
	if name != "" {
		parsed, err := format.ParseFormat(name)
		if err != nil {
			return nil, "", err
		}
		f = parsed
	}
	fw, err := format.ReadFile(config.ExpandPath(path), f)
	if err != nil {
		return nil, "", err
	}
	return fw, f, nil
}

// parseQueryFlags builds a query from --problem, --argument and
// --with-certificate.
func parseQueryFlags() (query.Query, error) {
	if problem == "" {
		return query.Query{}, fmt.Errorf("%w: a problem is required (-p)", errUsage)
	}
	q, err := query.ParseProblem(problem)
	if err != nil {
		return query.Query{}, err
	}
	q.Argument = af.Argument(argument)
	q.Certificate = withCertificate
	if q.Task.IsDecision() && q.Argument == "" {
		return query.Query{}, fmt.Errorf("%w: %s needs an argument (-a)", errUsage, q.Problem())
	}
	return q, nil
}
