// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/afsolver/pkg/validation"
	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/format"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
	"github.com/AleutianAI/afsolver/services/afsolver/telemetry"
)

// Config configures the handlers.
type Config struct {
	// Session configures the throwaway sessions behind POST /v1/solve.
	Session session.Config

	// MaxArguments rejects larger frameworks. Zero means unbounded.
	MaxArguments int

	// PageSize is the default enumeration page. Zero means 100.
	PageSize int

	// CursorTTL releases enumeration cursors idle for longer. Zero means one
	// minute; a negative value keeps cursors until drained or released.
	CursorTTL time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Handlers serves the solver and session endpoints.
//
// Thread Safety: safe for concurrent use.
type Handlers struct {
	manager *session.Manager
	cursors *cursors
	cfg     Config
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewHandlers creates handlers over manager.
func NewHandlers(manager *session.Manager, cfg Config) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.CursorTTL == 0 {
		cfg.CursorTTL = time.Minute
	}
	logger = logger.With(slog.String("component", "api"))
	return &Handlers{
		manager: manager,
		cursors: newCursors(cfg.CursorTTL, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// Close releases open enumeration cursors.
func (h *Handlers) Close() {
	h.cursors.closeAll()
}

// WithMetrics records mutation outcomes on m.
func (h *Handlers) WithMetrics(m *telemetry.Metrics) *Handlers {
	h.metrics = m
	return h
}

func (h *Handlers) requestLogger(c *gin.Context, handler string) *slog.Logger {
	return telemetry.LoggerWithTrace(c.Request.Context(), h.logger).With(
		slog.String("request_id", requestID(c)),
		slog.String("handler", handler))
}

func (h *Handlers) fail(c *gin.Context, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.String("code", code), slog.String("error", err.Error()))
	} else {
		logger.Warn("request rejected", slog.String("code", code), slog.String("error", err.Error()))
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("invalid request body", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
}

// buildFramework parses in into a framework.
func (h *Handlers) buildFramework(in FrameworkInput) (*af.Framework, error) {
	var f *af.Framework
	var err error
	switch {
	case in.Content != "" && (len(in.Arguments) > 0 || len(in.Attacks) > 0):
		return nil, ErrFrameworkInput
	case in.Content != "":
		var ff format.Format
		if ff, err = format.ParseFormat(in.Format); err != nil {
			return nil, err
		}
		f, err = format.Read(strings.NewReader(in.Content), ff)
	default:
		f, err = af.Build(in.Arguments, in.Attacks)
	}
	if err != nil {
		return nil, err
	}
	if h.cfg.MaxArguments > 0 && f.Len() > h.cfg.MaxArguments {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameworkTooLarge, f.Len(), h.cfg.MaxArguments)
	}
	if err := validation.ValidateLabels(labels(f.Arguments()...)); err != nil {
		return nil, err
	}
	return f, nil
}

func labels(args ...af.Argument) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		out = append(out, string(a))
	}
	return out
}

// validateBatch checks the labels each mutation names.
func validateBatch(b session.Batch) error {
	var names []af.Argument
	for _, m := range b {
		switch m.Op {
		case session.OpAddArgument, session.OpRemoveArgument:
			names = append(names, m.Argument)
		default:
			names = append(names, m.From, m.To)
		}
	}
	return validation.ValidateLabels(labels(names...))
}

// lookup resolves the :id path parameter. Ids the manager could not have
// issued are reported as not found.
func (h *Handlers) lookup(c *gin.Context) (*session.Session, error) {
	id := c.Param("id")
	if err := validation.ValidateSessionID(id); err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrSessionNotFound, err)
	}
	h.cursors.sweep()
	return h.manager.Get(id)
}

func parseQuery(req QueryRequest) (query.Query, error) {
	q, err := query.ParseProblem(req.Problem)
	if err != nil {
		return query.Query{}, err
	}
	q.Argument = req.Argument
	q.Certificate = req.Certificate
	return q, nil
}

// HandleSolve handles POST /v1/solve.
//
// Description:
//
//	Answers one query on a framework sent with the request. The framework
//	is encoded into a throwaway session that is closed before responding.
//
// Response:
//
//	200 OK: QueryResponse
//	400 Bad Request: unreadable body, framework text or problem
//	422 Unprocessable Entity: malformed framework or unsupported query
//	503 Service Unavailable: oracle exhausted
func (h *Handlers) HandleSolve(c *gin.Context) {
	logger := h.requestLogger(c, "HandleSolve")

	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	q, err := parseQuery(req.QueryRequest)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	f, err := h.buildFramework(req.Framework)
	if err != nil {
		h.fail(c, logger, err)
		return
	}

	s, err := session.New("solve-"+uuid.NewString(), f, h.cfg.Session)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	defer s.Close()

	res, err := s.Query(c.Request.Context(), q)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	logger.Info("solved",
		slog.String("problem", q.Problem()),
		slog.Int("arguments", f.Len()),
		slog.Duration("elapsed", res.Elapsed))
	c.JSON(http.StatusOK, newQueryResponse(res, 0))
}

// HandleCreateSession handles POST /v1/sessions.
//
// Response:
//
//	201 Created: session.Info
//	400, 422: bad framework
//	429 Too Many Requests: session limit reached
func (h *Handlers) HandleCreateSession(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCreateSession")

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	f, err := h.buildFramework(req.Framework)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	s, err := h.manager.Create(c.Request.Context(), f)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.Header("Location", "/v1/sessions/"+s.ID())
	c.JSON(http.StatusCreated, s.Info())
}

// HandleGetSession handles GET /v1/sessions/:id.
func (h *Handlers) HandleGetSession(c *gin.Context) {
	logger := h.requestLogger(c, "HandleGetSession")
	s, err := h.lookup(c)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, s.Info())
}

// HandleMutations handles POST /v1/sessions/:id/mutations.
//
// Description:
//
//	Applies the batch atomically. A rejected batch leaves the session at
//	its previous revision.
//
// Response:
//
//	200 OK: MutationsResponse
//	404 Not Found, 409 Conflict (enumeration open), 422 (malformed batch)
func (h *Handlers) HandleMutations(c *gin.Context) {
	logger := h.requestLogger(c, "HandleMutations")

	var req MutationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	if err := validateBatch(req.Mutations); err != nil {
		h.fail(c, logger, err)
		return
	}
	s, err := h.lookup(c)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	rev, err := s.Apply(c.Request.Context(), req.Mutations)
	h.countMutation(c.Request.Context(), err)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, MutationsResponse{SessionID: s.ID(), Revision: rev})
}

func (h *Handlers) countMutation(ctx context.Context, err error) {
	if h.metrics == nil {
		return
	}
	outcome := "applied"
	if err != nil {
		_, outcome = statusFor(err)
	}
	h.metrics.MutationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// HandleQuery handles POST /v1/sessions/:id/queries.
func (h *Handlers) HandleQuery(c *gin.Context) {
	logger := h.requestLogger(c, "HandleQuery")

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	q, err := parseQuery(req)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	s, err := h.lookup(c)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	res, err := s.Query(c.Request.Context(), q)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, newQueryResponse(res, s.Revision()))
}

// HandleExtensions handles GET /v1/sessions/:id/extensions.
//
// Description:
//
//	Serves a lazy enumeration page by page. A request without a cursor opens
//	a new enumeration; when more extensions may follow, the response carries
//	a cursor that continues it. The session answers 409 SESSION_BUSY to
//	mutations and queries while a cursor is open. Cursors end when drained,
//	on DELETE /v1/sessions/:id/extensions/:cursor, or after CursorTTL idle.
//
// Query Parameters:
//
//	semantics: semantics code, e.g. PR (required without cursor)
//	cursor: cursor from the previous page (optional)
//	limit: maximum extensions returned (optional)
//
// Response:
//
//	200 OK: ExtensionsResponse; Exhausted is true when no more exist.
//	404 Not Found: CURSOR_NOT_FOUND for unknown, expired or in-use cursors.
func (h *Handlers) HandleExtensions(c *gin.Context) {
	logger := h.requestLogger(c, "HandleExtensions")

	limit := h.cfg.PageSize
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, logger, fmt.Errorf("limit must be a positive integer, got %q", v))
			return
		}
		limit = n
	}
	var sem query.Semantics
	if v := c.Query("semantics"); v != "" || c.Query("cursor") == "" {
		parsed, err := query.ParseSemantics(v)
		if err != nil {
			h.fail(c, logger, err)
			return
		}
		sem = parsed
	}
	s, err := h.lookup(c)
	if err != nil {
		h.fail(c, logger, err)
		return
	}

	ctx := c.Request.Context()
	var cur *cursor
	if id := c.Query("cursor"); id != "" {
		if cur, err = h.cursors.take(id, s.ID()); err != nil {
			h.fail(c, logger, err)
			return
		}
		if c.Query("semantics") != "" && sem != cur.semantics {
			h.cursors.park(cur)
			badRequest(c, logger, fmt.Errorf("cursor enumerates %s, not %s", cur.semantics.Code(), sem.Code()))
			return
		}
	} else {
		en, err := s.Enumerate(ctx, sem)
		if err != nil {
			h.fail(c, logger, err)
			return
		}
		cur = newCursor(s.ID(), sem, en)
	}

	resp := ExtensionsResponse{Semantics: cur.semantics.Code(), Extensions: []af.Extension{}}
	for len(resp.Extensions) < limit {
		ext, ok, err := cur.en.Next(ctx)
		if err != nil {
			h.cursors.release(cur)
			h.fail(c, logger, err)
			return
		}
		if !ok {
			resp.Exhausted = true
			break
		}
		resp.Extensions = append(resp.Extensions, ext)
	}
	resp.Offset = cur.served
	cur.served += len(resp.Extensions)

	if resp.Exhausted {
		h.cursors.release(cur)
	} else {
		resp.Cursor = cur.id
		h.cursors.park(cur)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleReleaseCursor handles DELETE /v1/sessions/:id/extensions/:cursor.
//
// Response:
//
//	204 No Content: the enumeration is closed and the session is free.
//	404 Not Found: unknown session or cursor.
func (h *Handlers) HandleReleaseCursor(c *gin.Context) {
	logger := h.requestLogger(c, "HandleReleaseCursor")
	s, err := h.lookup(c)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	cur, err := h.cursors.take(c.Param("cursor"), s.ID())
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	h.cursors.release(cur)
	c.Status(http.StatusNoContent)
}

// HandleDeleteSession handles DELETE /v1/sessions/:id.
func (h *Handlers) HandleDeleteSession(c *gin.Context) {
	logger := h.requestLogger(c, "HandleDeleteSession")
	s, err := h.lookup(c)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	h.cursors.dropSession(s.ID())
	if err := h.manager.Delete(c.Request.Context(), s.ID()); err != nil {
		h.fail(c, logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Sessions: len(h.manager.List())})
}
