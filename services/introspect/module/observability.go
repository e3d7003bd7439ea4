// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package module

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/introspect/services/introspect/scanner"
)

const tracerName = "introspect.module"

var (
	buildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "introspect",
			Subsystem: "module",
			Name:      "build_duration_seconds",
			Help:      "Duration of module builds in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	objectsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "introspect",
		Subsystem: "module",
		Name:      "objects_built_total",
		Help:      "Exposed objects built.",
	})

	// buildFailures counts aborted builds.
	//
	// Labels:
	//   - kind: missing_name, not_exposed, unresolvable_type, duplicate_member
	buildFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "introspect",
			Subsystem: "module",
			Name:      "build_failures_total",
			Help:      "Module builds aborted by an introspection error.",
		},
		[]string{"kind"},
	)

	warningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "introspect",
			Subsystem: "module",
			Name:      "warnings_total",
			Help:      "Non-fatal diagnostics emitted by module builds.",
		},
		[]string{"kind"},
	)
)

func startBuildSpan(ctx context.Context, fileCount int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "module.Build",
		trace.WithAttributes(attribute.Int("file_count", fileCount)),
	)
}

func startPhaseSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name)
}

func setBuildSpanResult(span trace.Span, objects, enums, warnings int) {
	span.SetAttributes(
		attribute.Int("objects", objects),
		attribute.Int("enums", enums),
		attribute.Int("warnings", warnings),
	)
	span.SetStatus(codes.Ok, "")
}

func setBuildSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func recordBuildMetrics(d time.Duration, ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	buildDuration.WithLabelValues(status).Observe(d.Seconds())
}

func recordObjectBuilt() {
	objectsBuilt.Inc()
}

func recordBuildFailure(kind error) {
	label := "other"
	switch {
	case errors.Is(kind, scanner.ErrMissingName):
		label = "missing_name"
	case errors.Is(kind, scanner.ErrNotExposed):
		label = "not_exposed"
	case errors.Is(kind, scanner.ErrUnresolvableType):
		label = "unresolvable_type"
	case errors.Is(kind, scanner.ErrDuplicateMember):
		label = "duplicate_member"
	}
	buildFailures.WithLabelValues(label).Inc()
}

func recordWarning(kind scanner.WarningKind) {
	warningsTotal.WithLabelValues(string(kind)).Inc()
}
