// Package observability provides OpenTelemetry tracing for the DATEX runtime.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/unyt-org/datex-core-go/endpoint"
)

// TracerConfig describes which DATEX endpoint a tracer provider exports
// spans for, and where they go.
type TracerConfig struct {
	// ServiceName names the process in exported traces.
	ServiceName string
	// CollectorEndpoint is the OTLP/gRPC collector address.
	CollectorEndpoint string
	// Self is the DATEX endpoint identity this runtime executes as; it is
	// attached to every exported span so traces from a multi-endpoint
	// deployment can be told apart.
	Self endpoint.Endpoint
	// SampleRatio bounds the fraction of traces kept. Values outside
	// (0, 1) keep everything.
	SampleRatio float64
	// Deterministic forces AlwaysSample: a golden run's trace must be
	// complete to compare against.
	Deterministic bool
}

// InitTracer builds and installs the global tracer provider for cfg.
// Returns a shutdown function that must be called on service termination.
func InitTracer(cfg TracerConfig) (func(context.Context) error, error) {
	if cfg.CollectorEndpoint == "" {
		return nil, fmt.Errorf("failed to create trace exporter: no collector endpoint configured")
	}
	ctx := context.Background()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint),
		otlptracegrpc.WithInsecure(), // Use TLS in production
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(tracerAttributes(cfg)...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(samplerFor(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// tracerAttributes tags every span with the runtime's own endpoint
// identity alongside the standard service attributes.
func tracerAttributes(cfg TracerConfig) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		attribute.String("datex.self_endpoint", cfg.Self.String()),
		attribute.String("datex.endpoint_type", cfg.Self.Kind().String()),
		attribute.Int("datex.endpoint_instance", int(cfg.Self.Instance())),
	}
}

// samplerFor keeps every span for deterministic runs and applies the
// configured ratio otherwise.
func samplerFor(cfg TracerConfig) trace.Sampler {
	if cfg.Deterministic || cfg.SampleRatio <= 0 || cfg.SampleRatio >= 1 {
		return trace.AlwaysSample()
	}
	return trace.TraceIDRatioBased(cfg.SampleRatio)
}
