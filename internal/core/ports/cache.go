package ports

import (
	"context"

	"go.trai.ch/strata/internal/core/domain"
)

// Cache is a content-addressed key/value store.
// Values are immutable once written; writing the same key twice is last-write-wins.
//
//go:generate go run go.uber.org/mock/mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// GetOrInit returns the value for key, computing and storing it on a miss.
	// Concurrent callers for the same key share one computation.
	GetOrInit(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, error)
	// Close releases the backing store.
	Close() error
}

// StatsRecorder counts how work was served during a build.
// The kind label names the request type or cache tier.
type StatsRecorder interface {
	Hit(kind string)
	Miss(kind string)
	Bailout(kind string)
	Error(kind string)
	// Snapshot returns the totals across all kinds.
	Snapshot() domain.CacheStats
}

// CacheOpener opens the cache configured for a project.
type CacheOpener interface {
	Open(projectRoot string, opts domain.CacheOptions, stats StatsRecorder) (Cache, error)
}
