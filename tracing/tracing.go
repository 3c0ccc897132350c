// Package tracing installs the process-wide OpenTelemetry tracer provider.
package tracing

import (
	"context"
	"time"

	"github.com/krishg0kul/genai-multi-agent/config"
	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Shutdown flushes buffered spans.
type Shutdown func(context.Context) error

// Setup exports spans over OTLP/gRPC when tracing is enabled. Otherwise the
// global no-op provider stays in place and the returned Shutdown does nothing.
func Setup(ctx context.Context, cfg config.TracingConfig) (Shutdown, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	exporter, err := otlptrace.New(dialCtx, otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create otlp exporter")
	}

	name := cfg.ServiceName
	if name == "" {
		name = "helpdesk"
	}
	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(semconv.ServiceName(name)),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create trace resource")
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	log.Info().Str("endpoint", cfg.Endpoint).Str("service", name).Msg("tracing enabled")
	return provider.Shutdown, nil
}
