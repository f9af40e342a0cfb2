package rpc

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/plugins"
)

// NodeID is the unique identifier for the worker connector Graft node.
const NodeID graft.ID = "adapter.rpc"

func init() {
	graft.Register(graft.Node[*Connector]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{plugins.NodeID},
		Run: func(ctx context.Context) (*Connector, error) {
			set, err := graft.Dep[*plugins.Set](ctx)
			if err != nil {
				return nil, err
			}
			return NewConnector(set), nil
		},
	})
}
