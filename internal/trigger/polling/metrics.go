// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package polling

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsCollector records polling metrics through OpenTelemetry.
type MetricsCollector struct {
	pollsTotal  metric.Int64Counter
	itemsTotal  metric.Int64Counter
	errorsTotal metric.Int64Counter
	pollLatency metric.Float64Histogram

	activeTriggers   int64
	activeTriggersMu sync.RWMutex
}

// NewMetricsCollector creates a polling metrics collector.
func NewMetricsCollector(meterProvider metric.MeterProvider) (*MetricsCollector, error) {
	meter := meterProvider.Meter("pieces")

	mc := &MetricsCollector{}

	var err error

	mc.pollsTotal, err = meter.Int64Counter(
		"pieces_poll_trigger_polls_total",
		metric.WithDescription("Total number of poll executions"),
		metric.WithUnit("{poll}"),
	)
	if err != nil {
		return nil, err
	}

	mc.itemsTotal, err = meter.Int64Counter(
		"pieces_poll_trigger_items_total",
		metric.WithDescription("Total number of new items emitted by polling triggers"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	mc.errorsTotal, err = meter.Int64Counter(
		"pieces_poll_trigger_errors_total",
		metric.WithDescription("Total number of failed polls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	mc.pollLatency, err = meter.Float64Histogram(
		"pieces_poll_trigger_latency_seconds",
		metric.WithDescription("Poll execution latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge(
		"pieces_poll_trigger_active",
		metric.WithDescription("Number of scheduled polling triggers"),
		metric.WithUnit("{trigger}"),
		metric.WithInt64Callback(func(ctx context.Context, observer metric.Int64Observer) error {
			mc.activeTriggersMu.RLock()
			count := mc.activeTriggers
			mc.activeTriggersMu.RUnlock()
			observer.Observe(count)
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return mc, nil
}

// RecordPoll records a completed poll.
func (mc *MetricsCollector) RecordPoll(ctx context.Context, piece, trigger string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String("piece", piece),
		attribute.String("trigger", trigger),
		attribute.String("status", status),
	)

	mc.pollsTotal.Add(ctx, 1, attrs)
	mc.pollLatency.Record(ctx, duration.Seconds(), attrs)
}

// RecordItems records the number of items emitted by a poll.
func (mc *MetricsCollector) RecordItems(ctx context.Context, piece, trigger string, count int) {
	mc.itemsTotal.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("piece", piece),
		attribute.String("trigger", trigger),
	))
}

// RecordError records a failed poll by error type.
func (mc *MetricsCollector) RecordError(ctx context.Context, piece, errorType string) {
	mc.errorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("piece", piece),
		attribute.String("error_type", errorType),
	))
}

// SetActiveTriggers sets the count of scheduled triggers.
func (mc *MetricsCollector) SetActiveTriggers(count int) {
	mc.activeTriggersMu.Lock()
	mc.activeTriggers = int64(count)
	mc.activeTriggersMu.Unlock()
}
