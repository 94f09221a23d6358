package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName    = "fundamentals-ranker"
	serviceVersion = "1.0.0"
)

var (
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
	enabled        bool
	// sink is closed on Shutdown when tracing writes to a file
	sink io.Closer
)

// TraceConfig controls span export. Spans never go to stdout, which carries
// the ranked summary.
type TraceConfig struct {
	Enabled bool
	// File receives exported spans; empty means stderr
	File string
	// Output overrides File when set
	Output io.Writer
}

// LoadConfigFromEnv reads RANKER_TRACE ("true" to enable) and RANKER_TRACE_FILE.
func LoadConfigFromEnv() TraceConfig {
	return TraceConfig{
		Enabled: os.Getenv("RANKER_TRACE") == "true",
		File:    os.Getenv("RANKER_TRACE_FILE"),
	}
}

// Init configures tracing from the environment.
func Init() error {
	return InitWithConfig(LoadConfigFromEnv())
}

// InitWithConfig installs a tracer provider exporting pretty-printed spans.
// A disabled config leaves StartSpan as a no-op.
func InitWithConfig(cfg TraceConfig) error {
	enabled = false
	if !cfg.Enabled {
		return nil
	}

	out := cfg.Output
	if out == nil && cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
		sink = f
		out = f
	}
	if out == nil {
		out = os.Stderr
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
	if err != nil {
		return err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return err
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	tracer = otel.Tracer(serviceName)
	enabled = true
	return nil
}

// Shutdown flushes pending spans and disables tracing.
func Shutdown(ctx context.Context) error {
	var errs []error
	if tracerProvider != nil {
		errs = append(errs, tracerProvider.Shutdown(ctx))
		tracerProvider = nil
	}
	if sink != nil {
		errs = append(errs, sink.Close())
		sink = nil
	}
	tracer = nil
	enabled = false
	return errors.Join(errs...)
}

func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !enabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, opts...)
}

func Enabled() bool {
	return enabled
}

// GetTraceFields returns a fresh field map seeded with the trace and span ids
// of the active span, if any. Callers add their own fields to it.
func GetTraceFields(ctx context.Context) map[string]any {
	fields := make(map[string]any)
	if !enabled {
		return fields
	}
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return fields
	}
	fields["trace_id"] = span.SpanContext().TraceID().String()
	fields["span_id"] = span.SpanContext().SpanID().String()
	return fields
}
