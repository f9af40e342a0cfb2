package rpc_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/rpc"
	"go.trai.ch/strata/internal/core/domain"
)

type fakeWorker struct {
	id     byte
	calls  atomic.Int32
	err    error
	closed atomic.Bool
}

func (f *fakeWorker) Call(_ context.Context, _ string, _ []byte) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte{f.id}, nil
}

func (f *fakeWorker) Close() error {
	f.closed.Store(true)
	return nil
}

func fakes(n int) ([]*fakeWorker, []rpc.Worker) {
	fs := make([]*fakeWorker, n)
	ws := make([]rpc.Worker, n)
	for i := range n {
		fs[i] = &fakeWorker{id: byte(i)}
		ws[i] = fs[i]
	}
	return fs, ws
}

func TestNewPool_Empty(t *testing.T) {
	t.Parallel()

	_, err := rpc.NewPool()
	require.ErrorIs(t, err, domain.ErrWorkerPoolEmpty)
}

func TestPool_DispatchOneRoundRobin(t *testing.T) {
	t.Parallel()

	fs, ws := fakes(3)
	pool, err := rpc.NewPool(ws...)
	require.NoError(t, err)

	var got []byte
	for range 7 {
		out, err := pool.DispatchOne(context.Background(), rpc.MethodTransform, nil)
		require.NoError(t, err)
		got = append(got, out...)
	}

	assert.Equal(t, []byte{0, 1, 2, 0, 1, 2, 0}, got)
	assert.Equal(t, int32(3), fs[0].calls.Load())
	assert.Equal(t, int32(2), fs[1].calls.Load())
	assert.Equal(t, int32(2), fs[2].calls.Load())
}

func TestPool_BroadcastReachesEveryWorker(t *testing.T) {
	t.Parallel()

	fs, ws := fakes(4)
	pool, err := rpc.NewPool(ws...)
	require.NoError(t, err)

	results, err := pool.Broadcast(context.Background(), rpc.MethodLoadPlugin, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]byte{{0}, {1}, {2}, {3}}, results)
	for _, f := range fs {
		assert.Equal(t, int32(1), f.calls.Load())
	}
}

func TestPool_BroadcastFailure(t *testing.T) {
	t.Parallel()

	fs, ws := fakes(3)
	fs[1].err = domain.ErrPluginNotFound
	pool, err := rpc.NewPool(ws...)
	require.NoError(t, err)

	_, err = pool.Broadcast(context.Background(), rpc.MethodLoadPlugin, nil)
	require.ErrorIs(t, err, domain.ErrPluginNotFound)
}

func TestPool_Close(t *testing.T) {
	t.Parallel()

	fs, ws := fakes(2)
	fs[0].err = errors.New("unused")
	pool, err := rpc.NewPool(ws...)
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	for _, f := range fs {
		assert.True(t, f.closed.Load())
	}
}
