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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
)

func runBatchCmd(cmd *cobra.Command, args []string) error {
	q, err := parseQueryFlags()
	if err != nil {
		return err
	}
	n := concurrency
	if n <= 0 {
		n = cfg.Batch.Concurrency
	}
	return runBatch(cmd.Context(), cmd.OutOrStdout(), args, frameworkFormat, q, n, sessionConfig(cfg, appLogger()))
}

type batchJob struct {
	path string
	out  bytes.Buffer
	err  error
}

// runBatch answers q on every framework in paths with at most limit jobs in
// flight, one session per job. Answers are written in input order, each
// preceded by a "# path" line. A failed job does not stop the others; the
// failures are joined into the returned error.
func runBatch(ctx context.Context, out io.Writer, paths []string, formatName string, q query.Query, limit int, sc session.Config) error {
	log := sc.Logger
	if log == nil {
		log = slog.Default()
	}
	jobs := make([]*batchJob, len(paths))
	for i, p := range paths {
		jobs[i] = &batchJob{path: p}
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fw, ff, err := loadFramework(job.path, formatName)
			if err == nil {
				err = solve(gctx, &job.out, fw, ff, q, sc)
			}
			if err != nil {
				job.err = err
				log.Warn("batch job failed", slog.String("path", job.path), slog.String("error", err.Error()))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var errs []error
	for _, job := range jobs {
		fmt.Fprintf(out, "# %s\n", job.path)
		if job.err != nil {
			fmt.Fprintf(out, "ERROR %v\n", job.err)
			errs = append(errs, fmt.Errorf("%s: %w", job.path, job.err))
			continue
		}
		if _, err := out.Write(job.out.Bytes()); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}
