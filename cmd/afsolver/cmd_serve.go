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
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/afsolver/cmd/afsolver/config"
	"github.com/AleutianAI/afsolver/pkg/ux"
	"github.com/AleutianAI/afsolver/services/afsolver/api"
	"github.com/AleutianAI/afsolver/services/afsolver/journal"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
	"github.com/AleutianAI/afsolver/services/afsolver/telemetry"
)

func runServeCmd(cmd *cobra.Command, args []string) error {
	c := cfg
	if serveAddress != "" {
		c.Server.Address = serveAddress
	}
	c.Telemetry.ServiceVersion = version
	return serve(cmd.Context(), c, appLogger(), ux.NewPrinter(cmd.ErrOrStderr()))
}

// server bundles the HTTP server with the resources it owns.
type server struct {
	http      *http.Server
	handlers  *api.Handlers
	manager   *session.Manager
	journal   *journal.Journal
	recovered int
	shutdown  func(context.Context) error
	logger    *slog.Logger
}

// newServer wires telemetry, the optional journal, session recovery and the
// gin router for c.
func newServer(ctx context.Context, c config.AfsolverConfig, log *slog.Logger) (*server, error) {
	if c.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdown, err := telemetry.Init(ctx, c.Telemetry)
	if err != nil {
		return nil, err
	}
	srv := &server{shutdown: shutdown, logger: log}

	sc := sessionConfig(c, log)

	if c.Journal.Enabled {
		store := c.Journal.Store
		store.Path = config.ExpandPath(store.Path)
		j, err := journal.Open(store, log)
		if err != nil {
			_ = shutdown(ctx)
			return nil, fmt.Errorf("open journal: %w", err)
		}
		srv.journal = j
		sc.Journal = j
	}

	srv.manager = session.NewManager(sc, c.Server.MaxSessions)
	if srv.journal != nil {
		n, err := srv.manager.Recover(ctx, srv.journal)
		if err != nil {
			srv.close(ctx)
			return nil, fmt.Errorf("recover sessions: %w", err)
		}
		srv.recovered = n
		log.Info("sessions recovered", slog.Int("count", n))
	}

	meter := otel.Meter("afsolver")
	metrics, err := telemetry.NewMetrics(meter)
	if err != nil {
		srv.close(ctx)
		return nil, err
	}
	if _, err := metrics.RegisterSessionGauge(meter, func() int { return len(srv.manager.List()) }); err != nil {
		srv.close(ctx)
		return nil, err
	}

	srv.handlers = api.NewHandlers(srv.manager, api.Config{
		Session:      sessionConfig(c, log),
		MaxArguments: c.Server.MaxArguments,
		PageSize:     c.Server.PageSize,
		CursorTTL:    c.Server.CursorTTL,
		Logger:       log,
	}).WithMetrics(metrics)
	router := api.NewRouter(srv.handlers, api.RouterConfig{
		ServiceName: c.Telemetry.ServiceName,
		RateLimit:   c.Server.RateLimit,
		Burst:       c.Server.Burst,
		Metrics:     metrics,
	})

	srv.http = &http.Server{
		Addr:              c.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv, nil
}

// banner summarizes the serving configuration.
func (s *server) banner(p *ux.Printer, c config.AfsolverConfig) {
	p.Title("afsolver " + version)
	p.Field("address", c.Server.Address)
	p.Field("backend", c.Oracle.Backend)
	if s.journal == nil {
		p.Warning("journal disabled: sessions do not survive a restart")
		return
	}
	p.Field("journal", s.journal.Location())
	p.Field("recovered sessions", s.recovered)
}

// close releases sessions, the journal and telemetry. Sessions are closed
// without dropping their journal so a restart recovers them.
func (s *server) close(ctx context.Context) {
	if s.handlers != nil {
		s.handlers.Close()
	}
	if s.manager != nil {
		if err := s.manager.Close(); err != nil {
			s.logger.Warn("close sessions", slog.String("error", err.Error()))
		}
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Warn("close journal", slog.String("error", err.Error()))
		}
	}
	if err := s.shutdown(ctx); err != nil {
		s.logger.Warn("telemetry shutdown", slog.String("error", err.Error()))
	}
}

// serve runs the API until ctx is cancelled, then drains in-flight requests
// within the configured shutdown timeout.
func serve(ctx context.Context, c config.AfsolverConfig, log *slog.Logger, p *ux.Printer) error {
	srv, err := newServer(ctx, c, log)
	if err != nil {
		return err
	}
	srv.banner(p, c)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting afsolver server", slog.String("address", c.Server.Address))
		if err := srv.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down afsolver server")
	case serveErr = <-errCh:
	}

	grace := c.Server.ShutdownTimeout
	if grace <= 0 {
		grace = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.http.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", slog.String("error", err.Error()))
	}
	srv.close(shutdownCtx)
	return serveErr
}
