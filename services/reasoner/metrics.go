// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package reasoner

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for reasoning operations.
var (
	tracer = otel.Tracer("treelight.reasoner")
	meter  = otel.Meter("treelight.reasoner")
)

// Metrics for reasoning operations.
var (
	thoughtsTotal    metric.Int64Counter
	thoughtErrors    metric.Int64Counter
	evictionsTotal   metric.Int64Counter
	strategySwitches metric.Int64Counter
	thoughtLatency   metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		thoughtsTotal, err = meter.Int64Counter(
			"reasoner_thoughts_total",
			metric.WithDescription("Total thoughts processed, by strategy"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		thoughtErrors, err = meter.Int64Counter(
			"reasoner_thought_errors_total",
			metric.WithDescription("Total thoughts that produced an error response"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		evictionsTotal, err = meter.Int64Counter(
			"reasoner_store_evictions_total",
			metric.WithDescription("Total nodes evicted from thought stores"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		strategySwitches, err = meter.Int64Counter(
			"reasoner_strategy_switches_total",
			metric.WithDescription("Total dispatcher-level strategy changes"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		thoughtLatency, err = meter.Float64Histogram(
			"reasoner_thought_duration_seconds",
			metric.WithDescription("Duration of thought processing"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordThought records one processed thought with its latency.
func recordThought(ctx context.Context, strategyName string, start time.Time, failed bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("strategy", strategyName))
	thoughtsTotal.Add(ctx, 1, attrs)
	thoughtLatency.Record(ctx, time.Since(start).Seconds(), attrs)
	if failed {
		thoughtErrors.Add(ctx, 1, attrs)
	}
}

// recordEvictions records newly observed store evictions.
func recordEvictions(ctx context.Context, delta int64) {
	if delta <= 0 {
		return
	}
	if err := initMetrics(); err != nil {
		return
	}
	evictionsTotal.Add(ctx, delta)
}

// recordStrategySwitch records one dispatcher-level strategy change.
func recordStrategySwitch(ctx context.Context, from, to string) {
	if err := initMetrics(); err != nil {
		return
	}
	strategySwitches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
