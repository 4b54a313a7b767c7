// Package telemetry configures OpenTelemetry tracing for both binaries.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Shutdown flushes pending spans and releases the exporter.
type Shutdown func(context.Context) error

// Options select where spans go. A disabled setup leaves the global no-op
// provider installed.
type Options struct {
	ServiceName string
	Enabled     bool
	// Writer receives one JSON document per span. Defaults to os.Stderr.
	Writer io.Writer
	Logger *slog.Logger
}

// Setup installs the global tracer provider and W3C trace context propagation.
func Setup(opts Options) (Shutdown, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !opts.Enabled {
		logger.Debug("tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(semconv.ServiceName(opts.ServiceName)))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Info("tracing enabled", slog.String("service", opts.ServiceName))
	return tp.Shutdown, nil
}
