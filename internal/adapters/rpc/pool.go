package rpc

import (
	"context"
	"errors"
	"sync/atomic"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Pool holds persistent workers.
// Stateless calls go to one worker in round-robin order; setup calls go to all of them.
type Pool struct {
	workers []Worker
	cursor  atomic.Uint64
}

// NewPool creates a pool over workers.
func NewPool(workers ...Worker) (*Pool, error) {
	if len(workers) == 0 {
		return nil, domain.ErrWorkerPoolEmpty
	}
	return &Pool{workers: workers}, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// DispatchOne sends the call to the next worker.
func (p *Pool) DispatchOne(ctx context.Context, method string, payload []byte) ([]byte, error) {
	i := (p.cursor.Add(1) - 1) % uint64(len(p.workers))
	return p.workers[i].Call(ctx, method, payload)
}

// Broadcast sends the call to every worker and returns the results in worker order.
// It returns only after every worker has answered.
func (p *Pool) Broadcast(ctx context.Context, method string, payload []byte) ([][]byte, error) {
	results := make([][]byte, len(p.workers))

	g, ctx := errgroup.WithContext(ctx)
	for i, w := range p.workers {
		g.Go(func() error {
			out, err := w.Call(ctx, method, payload)
			if err != nil {
				return zerr.With(zerr.Wrap(err, "broadcast "+method), "worker", i)
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close closes every worker.
func (p *Pool) Close() error {
	var errs []error
	for _, w := range p.workers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
