package telemetry

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var _ sdktrace.SpanProcessor = (*Timings)(nil)

// KindTiming aggregates the spans of one request kind.
type KindTiming struct {
	Kind   string
	Count  int
	Errors int
	Total  time.Duration
}

// Timings is a span processor that sums span durations per request kind.
// Spans without a kind attribute are ignored.
type Timings struct {
	mu    sync.Mutex
	kinds map[string]*KindTiming
}

// NewTimings returns an empty processor.
func NewTimings() *Timings {
	return &Timings{kinds: make(map[string]*KindTiming)}
}

// OnStart does nothing.
func (t *Timings) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd records the finished span under its kind.
func (t *Timings) OnEnd(s sdktrace.ReadOnlySpan) {
	kind := ""
	for _, attr := range s.Attributes() {
		if string(attr.Key) == KindAttribute {
			kind = attr.Value.AsString()
			break
		}
	}
	if kind == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.kinds[kind]
	if !ok {
		entry = &KindTiming{Kind: kind}
		t.kinds[kind] = entry
	}
	entry.Count++
	entry.Total += s.EndTime().Sub(s.StartTime())
	if s.Status().Code == codes.Error {
		entry.Errors++
	}
}

// Snapshot returns the aggregated timings, slowest kind first.
func (t *Timings) Snapshot() []KindTiming {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]KindTiming, 0, len(t.kinds))
	for _, entry := range t.kinds {
		out = append(out, *entry)
	}
	slices.SortFunc(out, func(a, b KindTiming) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return out
}

// Reset clears all recorded timings.
func (t *Timings) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.kinds)
}

// Shutdown does nothing.
func (t *Timings) Shutdown(context.Context) error {
	return nil
}

// ForceFlush does nothing.
func (t *Timings) ForceFlush(context.Context) error {
	return nil
}
