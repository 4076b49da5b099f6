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
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/afsolver/services/afsolver/telemetry"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// ServiceName names the otelgin server spans.
	ServiceName string

	// RateLimit is the sustained request rate per second. Zero disables
	// limiting.
	RateLimit float64

	// Burst is the limiter bucket size.
	Burst int

	// Metrics, if set, records HTTP metrics.
	Metrics *telemetry.Metrics
}

// RegisterRoutes registers the /v1 endpoints on rg.
//
// Endpoints:
//
//	POST   /v1/solve                     - Answer one query on a posted framework
//	POST   /v1/sessions                  - Start a dynamic session
//	GET    /v1/sessions/:id              - Session summary
//	POST   /v1/sessions/:id/mutations    - Apply a mutation batch
//	POST   /v1/sessions/:id/queries      - Query the current revision
//	GET    /v1/sessions/:id/extensions   - Page through extensions lazily
//	DELETE /v1/sessions/:id/extensions/:cursor - Release an enumeration cursor
//	DELETE /v1/sessions/:id              - Close a session
//	GET    /v1/health                    - Liveness
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/solve", h.HandleSolve)

	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.HandleCreateSession)
		sessions.GET("/:id", h.HandleGetSession)
		sessions.POST("/:id/mutations", h.HandleMutations)
		sessions.POST("/:id/queries", h.HandleQuery)
		sessions.GET("/:id/extensions", h.HandleExtensions)
		sessions.DELETE("/:id/extensions/:cursor", h.HandleReleaseCursor)
		sessions.DELETE("/:id", h.HandleDeleteSession)
	}

	rg.GET("/health", h.HandleHealth)
}

// NewRouter builds the engine with recovery, tracing, request ids, rate
// limiting and metrics, and serves Prometheus metrics at /metrics.
func NewRouter(h *Handlers, cfg RouterConfig) *gin.Engine {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "afsolver"
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(RequestID())
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		router.Use(RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)))
	}
	if cfg.Metrics != nil {
		router.Use(Metrics(cfg.Metrics))
	}

	RegisterRoutes(router.Group("/v1"), h)
	router.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))
	return router
}
