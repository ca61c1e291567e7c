package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	globalMetrics Metrics
	metricsMu     sync.RWMutex
)

// Metrics records admission-control and delivery events. A nil or empty
// implementation is safe to call.
type Metrics interface {
	RecordAdmission(ctx context.Context, category string, allowed bool, reason string)
	RecordIsolation(ctx context.Context)
	RecordRequest(ctx context.Context, route string, duration time.Duration)
	RecordWSConnect(ctx context.Context)
	RecordWSDisconnect(ctx context.Context)
	RecordSendFailure(ctx context.Context)
}

// PrometheusMetrics implements Metrics over OTel instruments with a
// Prometheus exporter. The zero value is a no-op.
type PrometheusMetrics struct {
	admissionsTotal metric.Int64Counter
	rejectionsTotal metric.Int64Counter
	isolationsTotal metric.Int64Counter
	requestDuration metric.Float64Histogram
	wsConnections   metric.Int64UpDownCounter
	sendFailures    metric.Int64Counter
}

func NewPrometheusMetrics(
	admissionsTotal metric.Int64Counter,
	rejectionsTotal metric.Int64Counter,
	isolationsTotal metric.Int64Counter,
	requestDuration metric.Float64Histogram,
	wsConnections metric.Int64UpDownCounter,
	sendFailures metric.Int64Counter,
) *PrometheusMetrics {
	return &PrometheusMetrics{
		admissionsTotal: admissionsTotal,
		rejectionsTotal: rejectionsTotal,
		isolationsTotal: isolationsTotal,
		requestDuration: requestDuration,
		wsConnections:   wsConnections,
		sendFailures:    sendFailures,
	}
}

func (m *PrometheusMetrics) RecordAdmission(ctx context.Context, category string, allowed bool, reason string) {
	if m == nil || m.admissionsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("category", category),
	}
	m.admissionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	if !allowed && m.rejectionsTotal != nil {
		m.rejectionsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("category", category),
			attribute.String("reason", reason),
		))
	}
}

func (m *PrometheusMetrics) RecordIsolation(ctx context.Context) {
	if m == nil || m.isolationsTotal == nil {
		return
	}
	m.isolationsTotal.Add(ctx, 1)
}

func (m *PrometheusMetrics) RecordRequest(ctx context.Context, route string, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("route", route),
	))
}

func (m *PrometheusMetrics) RecordWSConnect(ctx context.Context) {
	if m == nil || m.wsConnections == nil {
		return
	}
	m.wsConnections.Add(ctx, 1)
}

func (m *PrometheusMetrics) RecordWSDisconnect(ctx context.Context) {
	if m == nil || m.wsConnections == nil {
		return
	}
	m.wsConnections.Add(ctx, -1)
}

func (m *PrometheusMetrics) RecordSendFailure(ctx context.Context) {
	if m == nil || m.sendFailures == nil {
		return
	}
	m.sendFailures.Add(ctx, 1)
}

// SetGlobalMetrics installs the process-wide metrics recorder.
func SetGlobalMetrics(m Metrics) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	globalMetrics = m
}

// GetGlobalMetrics returns the process-wide metrics recorder, or a no-op
// recorder when none was installed.
func GetGlobalMetrics() Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	if globalMetrics == nil {
		return (*PrometheusMetrics)(nil)
	}
	return globalMetrics
}
