package telemetry

import (
	"context"

	"go.trai.ch/strata/internal/core/ports"
)

var _ ports.Tracer = NoOpTracer{}

// NoOpTracer is a no-op implementation of ports.Tracer.
type NoOpTracer struct{}

// Start returns ctx unchanged and a span that records nothing.
func (NoOpTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, NoOpSpan{}
}

// NoOpSpan is a no-op implementation of ports.Span.
type NoOpSpan struct{}

// End does nothing.
func (NoOpSpan) End() {}

// RecordError does nothing.
func (NoOpSpan) RecordError(error) {}

// SetAttribute does nothing.
func (NoOpSpan) SetAttribute(string, any) {}
