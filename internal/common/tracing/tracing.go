// Package tracing sets up the OpenTelemetry tracer provider.
//
// Without an OTLP endpoint a no-op provider is used.
package tracing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kandev/kanban/internal/common/config"
)

var (
	mu          sync.RWMutex
	provider    trace.TracerProvider = noop.NewTracerProvider()
	sdkProvider *sdktrace.TracerProvider
)

// Init installs an OTLP/HTTP exporter when cfg.Endpoint is set.
func Init(ctx context.Context, cfg config.TracingConfig) error {
	if cfg.Endpoint == "" {
		return nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpointHost(cfg.Endpoint))}
	if cfg.Insecure || strings.HasPrefix(cfg.Endpoint, "http://") {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create otlp exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "kanban"
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(name)))
	if err != nil {
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	SetProvider(tp)
	mu.Lock()
	sdkProvider = tp
	mu.Unlock()
	return nil
}

// SetProvider replaces the provider returned by Tracer.
func SetProvider(tp trace.TracerProvider) {
	mu.Lock()
	provider = tp
	mu.Unlock()
	otel.SetTracerProvider(tp)
}

func endpointHost(endpoint string) string {
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(endpoint, prefix) {
			return endpoint[len(prefix):]
		}
	}
	return endpoint
}

// Tracer returns a named tracer from the current provider.
func Tracer(name string) trace.Tracer {
	mu.RLock()
	defer mu.RUnlock()
	return provider.Tracer(name)
}

// Shutdown flushes pending spans.
func Shutdown(ctx context.Context) error {
	mu.RLock()
	tp := sdkProvider
	mu.RUnlock()
	if tp != nil {
		return tp.Shutdown(ctx)
	}
	return nil
}
