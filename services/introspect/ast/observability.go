// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "introspect.ast"

var (
	// parseDuration measures how long a single file parse takes.
	//
	// Labels:
	//   - status: "success" or "error"
	parseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "introspect",
			Subsystem: "ast",
			Name:      "parse_duration_seconds",
			Help:      "Duration of TypeScript file parses in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"status"},
	)

	// cacheLookups counts parse cache lookups.
	//
	// Labels:
	//   - result: "hit" or "miss"
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "introspect",
			Subsystem: "ast",
			Name:      "cache_lookups_total",
			Help:      "Parse cache lookups by result.",
		},
		[]string{"result"},
	)
)

func startParseSpan(ctx context.Context, filePath string, size int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "ast.Parse",
		trace.WithAttributes(
			attribute.String("file", filePath),
			attribute.Int("size_bytes", size),
		),
	)
}

func setParseSpanResult(span trace.Span, hasSyntaxErrors bool) {
	span.SetAttributes(attribute.Bool("syntax_errors", hasSyntaxErrors))
}

func recordParseMetrics(d time.Duration, ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	parseDuration.WithLabelValues(status).Observe(d.Seconds())
}

func recordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}
