package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/cache"
	"go.trai.ch/strata/internal/core/domain"
)

func TestRecorder_SnapshotAndTextfile(t *testing.T) {
	t.Parallel()

	r := cache.NewRecorder()
	r.Hit("asset")
	r.Hit("cache")
	r.Miss("asset")
	r.Bailout("cache")
	r.Error("cache_read")

	assert.Equal(t, domain.CacheStats{Hits: 2, Misses: 1, Bailouts: 1, Errors: 1}, r.Snapshot())

	path := filepath.Join(t.TempDir(), "stats.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `strata_cache_events_total{kind="asset",result="hit"} 1`)
	assert.Contains(t, string(data), `strata_cache_events_total{kind="cache",result="bailout"} 1`)
}
