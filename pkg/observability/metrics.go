package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/dramaforge/dramaforge/pkg/config"
)

// InitMetrics builds the meter provider with a Prometheus exporter and
// registers the dramaforge instruments. When metrics are disabled every
// recording call is a no-op.
func InitMetrics(ctx context.Context, cfg config.MetricsConfig) (*PrometheusMetrics, error) {
	if !cfg.Enabled {
		return &PrometheusMetrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("dramaforge")

	admissions, err := meter.Int64Counter(
		"dramaforge_admissions_total",
		metric.WithDescription("Total admission decisions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create admissions counter: %w", err)
	}

	rejections, err := meter.Int64Counter(
		"dramaforge_rejections_total",
		metric.WithDescription("Total rejected requests by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rejections counter: %w", err)
	}

	isolations, err := meter.Int64Counter(
		"dramaforge_isolations_total",
		metric.WithDescription("Total requests refused due to tenant isolation"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create isolations counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		"dramaforge_request_duration_seconds",
		metric.WithDescription("Request duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	wsConnections, err := meter.Int64UpDownCounter(
		"dramaforge_ws_connections",
		metric.WithDescription("Currently connected WebSocket channels"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ws connections counter: %w", err)
	}

	sendFailures, err := meter.Int64Counter(
		"dramaforge_notify_send_failures_total",
		metric.WithDescription("Total failed notification sends"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create send failures counter: %w", err)
	}

	return NewPrometheusMetrics(
		admissions,
		rejections,
		isolations,
		requestDuration,
		wsConnections,
		sendFailures,
	), nil
}
