package cache

import (
	"bytes"
	"context"
	"sync"

	"go.trai.ch/strata/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

var _ ports.Cache = (*Memory)(nil)

// Memory is a process-local ports.Cache used when the persistent cache is
// disabled and in tests.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
	stats  ports.StatsRecorder
	group  singleflight.Group
}

// NewMemory returns an empty in-memory cache.
func NewMemory(stats ports.StatsRecorder) *Memory {
	return &Memory{values: make(map[string][]byte), stats: stats}
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok, _ := m.get(ctx, key)
	if ok {
		recordEvent(m.stats, "hit")
	} else {
		recordEvent(m.stats, "miss")
	}
	return value, ok, nil
}

func (m *Memory) get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(value), true, nil
}

// Set stores a copy of value.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = bytes.Clone(value)
	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// GetOrInit returns the value for key, computing it at most once per key at a time.
func (m *Memory) GetOrInit(
	ctx context.Context,
	key string,
	compute func(context.Context) ([]byte, error),
) ([]byte, error) {
	return getOrInit(ctx, &m.group, m.get, m.Set, func(event string) {
		recordEvent(m.stats, event)
	}, key, compute)
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
