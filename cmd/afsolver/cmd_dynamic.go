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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/afsolver/cmd/afsolver/config"
	"github.com/AleutianAI/afsolver/services/afsolver/format"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
)

func runDynamicCmd(cmd *cobra.Command, args []string) error {
	sc := sessionConfig(cfg, appLogger())
	switch {
	case watch && len(args) > 0:
		return fmt.Errorf("%w: --watch takes -f, not a script", errUsage)
	case watch:
		q, err := parseQueryFlags()
		if err != nil {
			return err
		}
		if frameworkPath == "" {
			return fmt.Errorf("%w: --watch needs a framework file (-f)", errUsage)
		}
		ff := format.Detect(frameworkPath)
		if frameworkFormat != "" {
			if ff, err = format.ParseFormat(frameworkFormat); err != nil {
				return err
			}
		}
		return watchFramework(cmd.Context(), cmd.OutOrStdout(), config.ExpandPath(frameworkPath), ff, q, sc, nil)
	case len(args) == 1:
		script, err := format.LoadScript(config.ExpandPath(args[0]))
		if err != nil {
			return err
		}
		return runScript(cmd.Context(), cmd.OutOrStdout(), script, sc)
	}
	return fmt.Errorf("%w: dynamic needs a script or --watch", errUsage)
}

// runScript executes every step of script against one session, writing each
// query answer to out as it is produced.
func runScript(ctx context.Context, out io.Writer, script *format.Script, sc session.Config) error {
	ff, err := script.FrameworkFormat()
	if err != nil {
		return err
	}
	actions, err := script.Actions()
	if err != nil {
		return err
	}
	fw, err := format.ReadFile(script.Framework, ff)
	if err != nil {
		return err
	}
	s, err := session.New("dynamic", fw, sc)
	if err != nil {
		return err
	}
	defer s.Close()

	for i, act := range actions {
		if act.Query != nil {
			res, err := s.Query(ctx, *act.Query)
			if err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			if err := format.WriteResult(out, ff, res); err != nil {
				return err
			}
			continue
		}
		if _, err := s.Apply(ctx, act.Batch); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// watchFramework answers q on path, then re-answers it after every change
// to the file. Each change is applied to the live session as the batch
// that turns the previous framework into the new one. It returns when ctx
// is cancelled. ready, if non-nil, is closed once the watcher is armed.
//
// The parent directory is watched because editors commonly replace files
// by rename.
func watchFramework(ctx context.Context, out io.Writer, path string, ff format.Format, q query.Query, sc session.Config, ready chan<- struct{}) error {
	log := sc.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "watch"), slog.String("path", path))

	fw, err := format.ReadFile(path, ff)
	if err != nil {
		return err
	}
	s, err := session.New("watch", fw, sc)
	if err != nil {
		return err
	}
	defer s.Close()

	answer := func() error {
		res, err := s.Query(ctx, q)
		if err != nil {
			return err
		}
		return format.WriteResult(out, ff, res)
	}
	if err := answer(); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	if ready != nil {
		close(ready)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", slog.String("error", err.Error()))
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			next, err := format.ReadFile(path, ff)
			if err != nil {
				// partial writes show up as parse errors; the next event retries
				log.Debug("reload skipped", slog.String("error", err.Error()))
				continue
			}
			batch := format.Diff(s.Framework(), next)
			if len(batch) == 0 {
				continue
			}
			rev, err := s.Apply(ctx, batch)
			if err != nil {
				return err
			}
			log.Info("framework changed",
				slog.Int("mutations", len(batch)),
				slog.Uint64("revision", rev))
			if err := answer(); err != nil {
				if errors.Is(err, query.ErrUnknownArgument) {
					log.Warn("query argument no longer present", slog.String("argument", string(q.Argument)))
					continue
				}
				return err
			}
		}
	}
}
