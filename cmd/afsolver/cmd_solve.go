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
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/format"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
)

func runSolveCmd(cmd *cobra.Command, args []string) error {
	q, err := parseQueryFlags()
	if err != nil {
		return err
	}
	fw, ff, err := loadFramework(frameworkPath, frameworkFormat)
	if err != nil {
		return err
	}
	return solve(cmd.Context(), cmd.OutOrStdout(), fw, ff, q, sessionConfig(cfg, appLogger()))
}

// solve answers q on fw in a throwaway session and writes the answer in ff.
func solve(ctx context.Context, out io.Writer, fw *af.Framework, ff format.Format, q query.Query, sc session.Config) error {
	s, err := session.New("solve", fw, sc)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Query(ctx, q)
	if err != nil {
		return err
	}
	log := sc.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Debug("solved",
		slog.String("problem", q.Problem()),
		slog.Duration("elapsed", res.Elapsed))
	return format.WriteResult(out, ff, res)
}
