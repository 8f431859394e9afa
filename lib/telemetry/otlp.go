package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const (
	exporterDialTimeout = 3 * time.Second
	metricInterval      = 15 * time.Second
)

type otlpTransport string

const (
	transportGrpc otlpTransport = "grpc"
	transportHttp otlpTransport = "http"
)

// transport picks grpc over http when both endpoints are configured.
func (c OtlpConnConfig) transport() (otlpTransport, string) {
	if c.GrpcEndpoint != "" {
		return transportGrpc, c.GrpcEndpoint
	}
	return transportHttp, c.HttpEndpoint
}

func newTraceProvider(ctx context.Context, r *resource.Resource, conn OtlpConnConfig) (*trace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterDialTimeout)
	defer cancel()

	kind, endpoint := conn.transport()
	var (
		exporter trace.SpanExporter
		err      error
	)
	switch kind {
	case transportGrpc:
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(endpoint),
			otlptracegrpc.WithHeaders(conn.Headers),
		)
	default:
		exporter, err = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(endpoint),
			otlptracehttp.WithHeaders(conn.Headers),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter (%s %s): %w", kind, endpoint, err)
	}
	slog.Info("exporting traces", "transport", kind, "endpoint", endpoint)

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

func newMetricProvider(ctx context.Context, r *resource.Resource, conn OtlpConnConfig) (*metric.MeterProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterDialTimeout)
	defer cancel()

	kind, endpoint := conn.transport()
	var (
		exporter metric.Exporter
		err      error
	)
	switch kind {
	case transportGrpc:
		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpointURL(endpoint),
			otlpmetricgrpc.WithHeaders(conn.Headers),
		)
	default:
		exporter, err = otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpointURL(endpoint),
			otlpmetrichttp.WithHeaders(conn.Headers),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("otlp metric exporter (%s %s): %w", kind, endpoint, err)
	}
	slog.Info("exporting metrics", "transport", kind, "endpoint", endpoint)

	reader := metric.NewPeriodicReader(exporter, metric.WithInterval(metricInterval))
	return metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithResource(r),
	), nil
}
