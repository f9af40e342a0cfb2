// Package rpc dispatches plugin calls to a pool of workers, in-process or over gRPC.
package rpc

import (
	"context"
	"runtime"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

// Connector builds worker pools for the configured worker mode.
type Connector struct {
	catalog Catalog
}

// NewConnector creates a Connector whose in-process workers serve plugins from catalog.
func NewConnector(catalog Catalog) *Connector {
	return &Connector{catalog: catalog}
}

// Connect creates the pool described by opts and a loader over it.
// The caller closes the pool.
func (c *Connector) Connect(_ context.Context, opts domain.WorkerOptions) (*Pool, ports.PluginLoader, error) {
	var workers []Worker

	switch opts.Mode {
	case domain.WorkersGRPC:
		for _, addr := range opts.Addrs {
			w, err := Dial(addr)
			if err != nil {
				closeAll(workers)
				return nil, nil, err
			}
			workers = append(workers, w)
		}
	default:
		count := opts.Count
		if count <= 0 {
			count = runtime.GOMAXPROCS(0)
		}
		for range count {
			workers = append(workers, NewInProcess(c.catalog))
		}
	}

	pool, err := NewPool(workers...)
	if err != nil {
		return nil, nil, err
	}
	return pool, NewLoader(pool), nil
}

func closeAll(workers []Worker) {
	for _, w := range workers {
		_ = w.Close()
	}
}
