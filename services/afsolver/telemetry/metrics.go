// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the HTTP and session instruments of the server.
//
// Thread Safety: safe for concurrent use after creation.
type Metrics struct {
	// HTTPRequestsTotal counts requests by method, route and status.
	HTTPRequestsTotal metric.Int64Counter

	// HTTPRequestDuration records request latency in seconds.
	HTTPRequestDuration metric.Float64Histogram

	// HTTPActiveRequests tracks requests in flight.
	HTTPActiveRequests metric.Int64UpDownCounter

	// MutationsTotal counts applied mutation batches by outcome.
	MutationsTotal metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.HTTPRequestsTotal, err = meter.Int64Counter("afsolver_http_requests_total",
		metric.WithDescription("Total HTTP requests"))
	if err != nil {
		return nil, fmt.Errorf("create http requests counter: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram("afsolver_http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30))
	if err != nil {
		return nil, fmt.Errorf("create http duration histogram: %w", err)
	}

	m.HTTPActiveRequests, err = meter.Int64UpDownCounter("afsolver_http_active_requests",
		metric.WithDescription("HTTP requests in flight"))
	if err != nil {
		return nil, fmt.Errorf("create active requests counter: %w", err)
	}

	m.MutationsTotal, err = meter.Int64Counter("afsolver_mutation_batches_total",
		metric.WithDescription("Mutation batches submitted, by outcome"))
	if err != nil {
		return nil, fmt.Errorf("create mutations counter: %w", err)
	}
	return m, nil
}

// RegisterSessionGauge reports the number of live sessions on every
// collection.
func (m *Metrics) RegisterSessionGauge(meter metric.Meter, count func() int) (metric.Registration, error) {
	gauge, err := meter.Int64ObservableGauge("afsolver_sessions_active",
		metric.WithDescription("Live reasoning sessions"))
	if err != nil {
		return nil, fmt.Errorf("create sessions gauge: %w", err)
	}
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(gauge, int64(count()))
		return nil
	}, gauge)
}
