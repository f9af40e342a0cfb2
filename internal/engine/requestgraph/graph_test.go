package requestgraph_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/cache"
	"go.trai.ch/strata/internal/adapters/fs"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/requestgraph"
)

// fnRequest adapts a function to a request.
type fnRequest[T any] struct {
	key  string
	kind string
	fn   func(ctx context.Context, rc *requestgraph.RunContext) (T, error)
}

func (r fnRequest[T]) Key() string  { return r.key }
func (r fnRequest[T]) Kind() string { return r.kind }
func (r fnRequest[T]) Run(ctx context.Context, rc *requestgraph.RunContext) (T, error) {
	return r.fn(ctx, rc)
}

func newGraph(t *testing.T) (*requestgraph.Graph, *fs.FileSystem, *cache.Recorder) {
	t.Helper()
	mem := fs.NewMemory()
	stats := cache.NewRecorder()
	return requestgraph.New(mem, stats, nil), mem, stats
}

// readRequest reads path and counts its runs.
func readRequest(key, path string, runs *atomic.Int32) fnRequest[string] {
	return fnRequest[string]{key: key, kind: "read", fn: func(_ context.Context, rc *requestgraph.RunContext) (string, error) {
		runs.Add(1)
		data, err := rc.ReadFile(path)
		if err != nil {
			return "<missing>", nil //nolint:nilerr // absence is a result
		}
		return string(data), nil
	}}
}

func TestGraph_ReusesValidResult(t *testing.T) {
	t.Parallel()
	g, mem, stats := newGraph(t)
	require.NoError(t, mem.WriteFile("/p/a.txt", []byte("one")))

	var runs atomic.Int32
	req := readRequest("a", "/p/a.txt", &runs)
	ctx := context.Background()

	for range 3 {
		g.NewGeneration()
		got, err := requestgraph.Run(ctx, g, req)
		require.NoError(t, err)
		assert.Equal(t, "one", got)
	}
	assert.Equal(t, int32(1), runs.Load())

	state, ok := g.State("a")
	require.True(t, ok)
	assert.Equal(t, requestgraph.StateValid, state)
	assert.Equal(t, domain.CacheStats{Hits: 2, Misses: 1}, stats.Snapshot())
}

func TestGraph_DeduplicatesConcurrentCallers(t *testing.T) {
	t.Parallel()
	g, _, _ := newGraph(t)

	release := make(chan struct{})
	var runs atomic.Int32
	req := fnRequest[int]{key: "slow", kind: "test", fn: func(context.Context, *requestgraph.RunContext) (int, error) {
		runs.Add(1)
		<-release
		return 42, nil
	}}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := requestgraph.Run(context.Background(), g, req)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestGraph_InvalidationPropagatesToParents(t *testing.T) {
	t.Parallel()
	g, mem, _ := newGraph(t)
	require.NoError(t, mem.WriteFile("/p/b.txt", []byte("b1")))

	var childRuns, parentRuns atomic.Int32
	child := readRequest("child", "/p/b.txt", &childRuns)
	parent := fnRequest[string]{key: "parent", kind: "test", fn: func(ctx context.Context, rc *requestgraph.RunContext) (string, error) {
		parentRuns.Add(1)
		v, err := requestgraph.Run(ctx, rc, child)
		return "parent(" + v + ")", err
	}}
	ctx := context.Background()

	got, err := requestgraph.Run(ctx, g, parent)
	require.NoError(t, err)
	assert.Equal(t, "parent(b1)", got)

	assert.Contains(t, g.Edges(), requestgraph.Edge{From: "parent", To: "child", Kind: requestgraph.EdgeSubRequest})
	assert.Contains(t, g.Edges(), requestgraph.Edge{From: "child", To: "/p/b.txt", Kind: requestgraph.EdgeFileChange})

	require.NoError(t, mem.WriteFile("/p/b.txt", []byte("b2")))
	assert.Equal(t, 2, g.Invalidate("/p/b.txt"))

	for _, key := range []string{"parent", "child"} {
		state, _ := g.State(key)
		assert.Equal(t, requestgraph.StateInvalid, state, key)
	}

	got, err = requestgraph.Run(ctx, g, parent)
	require.NoError(t, err)
	assert.Equal(t, "parent(b2)", got)
	assert.Equal(t, int32(2), childRuns.Load())
	assert.Equal(t, int32(2), parentRuns.Load())
}

func TestGraph_UnrelatedChangeKeepsResult(t *testing.T) {
	t.Parallel()
	g, mem, _ := newGraph(t)
	require.NoError(t, mem.WriteFile("/p/a.txt", []byte("a")))

	var runs atomic.Int32
	req := readRequest("a", "/p/a.txt", &runs)
	_, err := requestgraph.Run(context.Background(), g, req)
	require.NoError(t, err)

	assert.Zero(t, g.Invalidate("/p/other.txt"))
	_, err = requestgraph.Run(context.Background(), g, req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), runs.Load())
}

func TestGraph_MissingFileCreatedLater(t *testing.T) {
	t.Parallel()
	g, mem, _ := newGraph(t)

	var runs atomic.Int32
	req := readRequest("late", "/p/late.txt", &runs)
	got, err := requestgraph.Run(context.Background(), g, req)
	require.NoError(t, err)
	assert.Equal(t, "<missing>", got)

	require.NoError(t, mem.WriteFile("/p/late.txt", []byte("here")))
	assert.Equal(t, 1, g.Invalidate("/p/late.txt"))

	got, err = requestgraph.Run(context.Background(), g, req)
	require.NoError(t, err)
	assert.Equal(t, "here", got)
}

func TestGraph_ErrorIsRetriedNextGeneration(t *testing.T) {
	t.Parallel()
	g, _, stats := newGraph(t)

	boom := errors.New("boom")
	var runs atomic.Int32
	req := fnRequest[string]{key: "flaky", kind: "test", fn: func(context.Context, *requestgraph.RunContext) (string, error) {
		if runs.Add(1) == 1 {
			return "", boom
		}
		return "ok", nil
	}}
	ctx := context.Background()

	_, err := requestgraph.Run(ctx, g, req)
	require.ErrorIs(t, err, boom)
	state, _ := g.State("flaky")
	assert.Equal(t, requestgraph.StateError, state)

	// The same generation sees the recorded failure without running again.
	_, err = requestgraph.Run(ctx, g, req)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), runs.Load())

	g.NewGeneration()
	got, err := requestgraph.Run(ctx, g, req)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, uint64(1), stats.Snapshot().Errors)
}

func TestGraph_ParentOfFailedSubRequestFails(t *testing.T) {
	t.Parallel()
	g, _, _ := newGraph(t)

	boom := errors.New("sub failed")
	child := fnRequest[int]{key: "child", kind: "test", fn: func(context.Context, *requestgraph.RunContext) (int, error) {
		return 0, boom
	}}
	parent := fnRequest[int]{key: "parent", kind: "test", fn: func(ctx context.Context, rc *requestgraph.RunContext) (int, error) {
		return requestgraph.Run(ctx, rc, child)
	}}

	_, err := requestgraph.Run(context.Background(), g, parent)
	require.ErrorIs(t, err, boom)
	state, _ := g.State("parent")
	assert.Equal(t, requestgraph.StateError, state)
}

func TestGraph_ParentTolerantOfFailedSubRequestStaysInvalid(t *testing.T) {
	t.Parallel()
	g, _, _ := newGraph(t)

	child := fnRequest[int]{key: "child", kind: "test", fn: func(context.Context, *requestgraph.RunContext) (int, error) {
		return 0, errors.New("ignored")
	}}
	parent := fnRequest[int]{key: "parent", kind: "test", fn: func(ctx context.Context, rc *requestgraph.RunContext) (int, error) {
		_, _ = requestgraph.Run(ctx, rc, child)
		return 1, nil
	}}

	_, err := requestgraph.Run(context.Background(), g, parent)
	require.NoError(t, err)
	state, _ := g.State("parent")
	assert.Equal(t, requestgraph.StateInvalid, state)
}

// TestGraph_InvalidationRace_FileChangedDuringRun pins the race policy: a request whose input
// changes while it runs returns its result for the current build but is not marked Valid, so the
// next build recomputes it.
func TestGraph_InvalidationRace_FileChangedDuringRun(t *testing.T) {
	t.Parallel()
	g, mem, _ := newGraph(t)
	require.NoError(t, mem.WriteFile("/p/src.txt", []byte("v1")))

	var runs atomic.Int32
	req := fnRequest[string]{key: "racy", kind: "test", fn: func(_ context.Context, rc *requestgraph.RunContext) (string, error) {
		n := runs.Add(1)
		data, err := rc.ReadFile("/p/src.txt")
		if err != nil {
			return "", err
		}
		if n == 1 {
			// An editor saves the file while the request is still running.
			if err := mem.WriteFile("/p/src.txt", []byte("version2")); err != nil {
				return "", err
			}
		}
		return string(data), nil
	}}
	ctx := context.Background()

	got, err := requestgraph.Run(ctx, g, req)
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
	state, _ := g.State("racy")
	assert.Equal(t, requestgraph.StateInvalid, state)

	g.NewGeneration()
	got, err = requestgraph.Run(ctx, g, req)
	require.NoError(t, err)
	assert.Equal(t, "version2", got)
	state, _ = g.State("racy")
	assert.Equal(t, requestgraph.StateValid, state)
	assert.Equal(t, int32(2), runs.Load())
}

func TestGraph_InvalidateAll(t *testing.T) {
	t.Parallel()
	g, _, _ := newGraph(t)

	var runs atomic.Int32
	req := fnRequest[int]{key: "k", kind: "test", fn: func(context.Context, *requestgraph.RunContext) (int, error) {
		return int(runs.Add(1)), nil
	}}
	_, err := requestgraph.Run(context.Background(), g, req)
	require.NoError(t, err)

	assert.Equal(t, 1, g.InvalidateAll())
	got, err := requestgraph.Run(context.Background(), g, req)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, 1, g.Len())
}

func TestGraph_ResultTypeMismatch(t *testing.T) {
	t.Parallel()
	g, _, _ := newGraph(t)
	ctx := context.Background()

	_, err := requestgraph.Run(ctx, g, fnRequest[int]{key: "k", kind: "test", fn: func(context.Context, *requestgraph.RunContext) (int, error) {
		return 1, nil
	}})
	require.NoError(t, err)

	_, err = requestgraph.Run(ctx, g, fnRequest[string]{key: "k", kind: "test", fn: func(context.Context, *requestgraph.RunContext) (string, error) {
		return "", nil
	}})
	require.ErrorIs(t, err, domain.ErrRequestResultType)
}

func TestGraph_WaiterHonoursCancellation(t *testing.T) {
	t.Parallel()
	g, _, _ := newGraph(t)

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	req := fnRequest[int]{key: "blocked", kind: "test", fn: func(context.Context, *requestgraph.RunContext) (int, error) {
		close(started)
		<-release
		return 1, nil
	}}

	go func() { _, _ = requestgraph.Run(context.Background(), g, req) }()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := requestgraph.Run(ctx, g, req)
	require.ErrorIs(t, err, context.Canceled)
}
