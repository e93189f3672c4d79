// internal/tracing/otel.go
package tracing

import (
	"context"
	"io"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// InitTracer installs a tracer provider exporting to w.
// It returns a function that should be called on shutdown.
func InitTracer(serviceName, environment string, w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironmentName(environment),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Setup initializes tracing when enabled and otherwise leaves the global
// no-op provider in place. The returned shutdown is always safe to call.
func Setup(enabled bool, serviceName, environment string) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !enabled {
		return noop
	}
	shutdown, err := InitTracer(serviceName, environment, log.Writer())
	if err != nil {
		log.Printf("failed to initialize tracer: %v", err)
		return noop
	}
	return shutdown
}
