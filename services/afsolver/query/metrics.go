// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package query

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for query dispatch.
var (
	tracer = otel.Tracer("afsolver.query")
	meter  = otel.Meter("afsolver.query")
)

// Metrics for query operations.
var (
	queryLatency metric.Float64Histogram
	queryTotal   metric.Int64Counter
	oracleCalls  metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		queryLatency, err = meter.Float64Histogram(
			"afsolver_query_duration_seconds",
			metric.WithDescription("Duration of reasoning queries"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryTotal, err = meter.Int64Counter(
			"afsolver_query_total",
			metric.WithDescription("Total number of reasoning queries"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		oracleCalls, err = meter.Int64Histogram(
			"afsolver_query_oracle_calls",
			metric.WithDescription("Oracle calls per query"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordQueryMetrics records metrics for one query.
func recordQueryMetrics(ctx context.Context, q Query, duration time.Duration, calls int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("problem", q.Problem()),
		attribute.Bool("success", success),
	)
	queryLatency.Record(ctx, duration.Seconds(), attrs)
	queryTotal.Add(ctx, 1, attrs)
	oracleCalls.Record(ctx, int64(calls), metric.WithAttributes(attribute.String("problem", q.Problem())))
}

// startQuerySpan creates a span for a query.
func startQuerySpan(ctx context.Context, q Query, arguments int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Dispatcher.Run",
		trace.WithAttributes(
			attribute.String("query.problem", q.Problem()),
			attribute.String("query.argument", string(q.Argument)),
			attribute.Int("af.arguments", arguments),
		),
	)
}

// setQuerySpanResult sets the result attributes on a query span.
func setQuerySpanResult(span trace.Span, r Result, calls int) {
	span.SetAttributes(
		attribute.Bool("query.found", r.Found),
		attribute.Bool("query.accepted", r.Accepted),
		attribute.Int("query.extensions", len(r.Extensions)),
		attribute.Int("query.oracle_calls", calls),
	)
}
