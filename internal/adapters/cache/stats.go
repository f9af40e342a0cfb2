package cache

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StatsRecorder = (*Recorder)(nil)

// Recorder counts hits, misses, bailouts and errors per kind in a private
// prometheus registry and keeps running totals for Snapshot.
type Recorder struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec

	hits     atomic.Uint64
	misses   atomic.Uint64
	bailouts atomic.Uint64
	errors   atomic.Uint64
}

// NewRecorder returns a Recorder with its own registry.
func NewRecorder() *Recorder {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_cache_events_total",
			Help: "Requests and cache lookups by kind and outcome",
		},
		[]string{"kind", "result"},
	)
	registry := prometheus.NewRegistry()
	registry.MustRegister(events)

	return &Recorder{registry: registry, events: events}
}

// Hit records work served from a valid result or a cached value.
func (r *Recorder) Hit(kind string) {
	r.hits.Add(1)
	r.events.WithLabelValues(kind, "hit").Inc()
}

// Miss records work that had to be computed.
func (r *Recorder) Miss(kind string) {
	r.misses.Add(1)
	r.events.WithLabelValues(kind, "miss").Inc()
}

// Bailout records a cached value that was discarded and recomputed.
func (r *Recorder) Bailout(kind string) {
	r.bailouts.Add(1)
	r.events.WithLabelValues(kind, "bailout").Inc()
}

// Error records a failed lookup or computation.
func (r *Recorder) Error(kind string) {
	r.errors.Add(1)
	r.events.WithLabelValues(kind, "error").Inc()
}

// Snapshot returns the totals across all kinds.
func (r *Recorder) Snapshot() domain.CacheStats {
	return domain.CacheStats{
		Hits:     r.hits.Load(),
		Misses:   r.misses.Load(),
		Bailouts: r.bailouts.Load(),
		Errors:   r.errors.Load(),
	}
}

// Registry exposes the underlying prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the counters in the prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path)
	}
	return nil
}
