// Package telemetry adapts OpenTelemetry tracing to ports.Tracer and aggregates request timings.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/strata/internal/core/ports"
)

// InstrumentationName names the tracer used by the build engine.
const InstrumentationName = "go.trai.ch/strata"

// Provider owns the SDK tracer provider and its timing processor.
type Provider struct {
	tp      *sdktrace.TracerProvider
	timings *Timings
	tracer  *OTelTracer
}

// NewProvider creates a tracer provider that feeds a Timings processor.
// Extra processors (exporters, recorders) receive every span as well.
func NewProvider(extra ...sdktrace.SpanProcessor) *Provider {
	timings := NewTimings()
	opts := []sdktrace.TracerProviderOption{sdktrace.WithSpanProcessor(timings)}
	for _, p := range extra {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	return &Provider{
		tp:      tp,
		timings: timings,
		tracer:  NewOTelTracer(tp, InstrumentationName),
	}
}

// Install registers the provider as the global OpenTelemetry tracer provider.
func (p *Provider) Install() {
	otel.SetTracerProvider(p.tp)
}

// Tracer returns the engine tracer.
func (p *Provider) Tracer() ports.Tracer {
	return p.tracer
}

// Timings returns the per-kind timing aggregate.
func (p *Provider) Timings() *Timings {
	return p.timings
}

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}
