// internal/app/system/tracing/tracing.go
//
// Package tracing installs the global OpenTelemetry tracer provider. Code
// that creates spans only uses otel.Tracer; with the "none" exporter those
// spans are no-ops.
package tracing

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Exporter names accepted by Init.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config selects where spans go.
type Config struct {
	ServiceName  string
	Exporter     string // none | stdout | otlp
	OTLPEndpoint string // host:port, used by otlp
	OTLPInsecure bool
}

// ValidExporter reports whether name is a known exporter.
func ValidExporter(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ExporterNone, ExporterStdout, ExporterOTLP:
		return true
	}
	return false
}

// Init installs a tracer provider for cfg and returns its shutdown func.
// The "none" exporter installs nothing and returns a no-op shutdown.
func Init(ctx context.Context, cfg Config, logger *zap.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	var exp sdktrace.SpanExporter
	var err error
	switch strings.ToLower(strings.TrimSpace(cfg.Exporter)) {
	case "", ExporterNone:
		return noop, nil
	case ExporterStdout:
		exp, err = stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err = otlptracegrpc.New(ctx, opts...)
	default:
		return noop, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}
	if err != nil {
		return noop, fmt.Errorf("create %s trace exporter: %w", cfg.Exporter, err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "studyhub"
	}
	res := resource.NewWithAttributes("", attribute.String("service.name", name))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	if logger != nil {
		logger.Info("tracing enabled", zap.String("exporter", cfg.Exporter))
	}
	return tp.Shutdown, nil
}
