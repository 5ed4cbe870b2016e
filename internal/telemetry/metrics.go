// Package telemetry provides OpenTelemetry metric instruments for the order
// tracking and realtime fan-out subsystems.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// TrackingMetricsMeterName is the name used for the tracking metrics meter.
	TrackingMetricsMeterName = "github.com/prasnshabrainerhub/pizza-ordering-system/internal/tracking"

	// RealtimeMetricsMeterName is the name used for the realtime metrics meter.
	RealtimeMetricsMeterName = "github.com/prasnshabrainerhub/pizza-ordering-system/internal/realtime"
)

// TrackingMetrics holds the OpenTelemetry instruments for order lifecycle runs.
type TrackingMetrics struct {
	runsStarted   metric.Int64Counter
	runsFinished  metric.Int64Counter
	stageDuration metric.Float64Histogram
}

// NewTrackingMetrics creates a TrackingMetrics instance with the given meter
// provider. If provider is nil, it returns nil (no-op metrics).
func NewTrackingMetrics(provider metric.MeterProvider) (*TrackingMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(TrackingMetricsMeterName)

	runsStarted, err := meter.Int64Counter(
		"pizza_tracking_runs_started_total",
		metric.WithDescription("Number of order lifecycle runs started"),
	)
	if err != nil {
		return nil, err
	}

	runsFinished, err := meter.Int64Counter(
		"pizza_tracking_runs_finished_total",
		metric.WithDescription("Number of order lifecycle runs finished, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"pizza_tracking_stage_duration_seconds",
		metric.WithDescription("Time spent advancing one lifecycle stage"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	return &TrackingMetrics{
		runsStarted:   runsStarted,
		runsFinished:  runsFinished,
		stageDuration: stageDuration,
	}, nil
}

// RecordRunStarted counts a lifecycle run start.
func (m *TrackingMetrics) RecordRunStarted(ctx context.Context) {
	if m == nil || m.runsStarted == nil {
		return
	}
	m.runsStarted.Add(ctx, 1)
}

// RecordRunFinished counts a lifecycle run end with its outcome
// ("completed", "order_gone", "cancelled", or "failed").
func (m *TrackingMetrics) RecordRunFinished(ctx context.Context, outcome string) {
	if m == nil || m.runsFinished == nil {
		return
	}
	m.runsFinished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordStageDuration records how long one stage advance took.
func (m *TrackingMetrics) RecordStageDuration(ctx context.Context, status string, d time.Duration) {
	if m == nil || m.stageDuration == nil {
		return
	}
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("status", status),
	))
}

// RealtimeMetrics holds the OpenTelemetry instruments for the connection
// registry.
type RealtimeMetrics struct {
	connections     metric.Int64UpDownCounter
	eventsDelivered metric.Int64Counter
	eventsDropped   metric.Int64Counter
}

// NewRealtimeMetrics creates a RealtimeMetrics instance with the given meter
// provider. If provider is nil, it returns nil (no-op metrics).
func NewRealtimeMetrics(provider metric.MeterProvider) (*RealtimeMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RealtimeMetricsMeterName)

	connections, err := meter.Int64UpDownCounter(
		"pizza_realtime_connections",
		metric.WithDescription("Number of live websocket connections"),
	)
	if err != nil {
		return nil, err
	}

	eventsDelivered, err := meter.Int64Counter(
		"pizza_realtime_events_delivered_total",
		metric.WithDescription("Events enqueued for delivery to connections"),
	)
	if err != nil {
		return nil, err
	}

	eventsDropped, err := meter.Int64Counter(
		"pizza_realtime_events_dropped_total",
		metric.WithDescription("Events dropped because a connection could not keep up"),
	)
	if err != nil {
		return nil, err
	}

	return &RealtimeMetrics{
		connections:     connections,
		eventsDelivered: eventsDelivered,
		eventsDropped:   eventsDropped,
	}, nil
}

// RecordConnect counts a connection being added to the registry.
func (m *RealtimeMetrics) RecordConnect(ctx context.Context) {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.Add(ctx, 1)
}

// RecordDisconnect counts a connection being removed from the registry.
func (m *RealtimeMetrics) RecordDisconnect(ctx context.Context) {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.Add(ctx, -1)
}

// RecordDelivered counts events enqueued to connections.
func (m *RealtimeMetrics) RecordDelivered(ctx context.Context, n int64) {
	if m == nil || m.eventsDelivered == nil {
		return
	}
	m.eventsDelivered.Add(ctx, n)
}

// RecordDropped counts events dropped due to slow or broken connections.
func (m *RealtimeMetrics) RecordDropped(ctx context.Context, n int64) {
	if m == nil || m.eventsDropped == nil {
		return
	}
	m.eventsDropped.Add(ctx, n)
}
