// Package observability wires OpenTelemetry tracing around query execution.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Enabled        bool
	SamplingRate   float64
	// Writer receives exported spans; defaults to stderr
	Writer       io.Writer
	BatchTimeout time.Duration
}

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider
)

// DefaultTracingConfig returns a tracing configuration with tracing disabled.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "widecol",
		ServiceVersion: "0.1.0",
		Environment:    getEnv("ENVIRONMENT", "development"),
		SamplingRate:   0.1,
		BatchTimeout:   5 * time.Second,
	}
}

// Initialize installs a global tracer provider exporting to cfg.Writer.
// With tracing disabled it leaves the no-op global provider in place.
func Initialize(cfg TracingConfig) error {
	mu.Lock()
	defer mu.Unlock()

	if !cfg.Enabled || provider != nil {
		return nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	case cfg.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 5 * time.Second
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}

// Shutdown flushes and stops the tracer provider installed by Initialize.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	mu.Unlock()

	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer: %w", err)
	}
	return nil
}

// getEnv gets environment variable with default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
