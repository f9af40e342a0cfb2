package plugins

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/fs"
	"go.trai.ch/strata/internal/adapters/packagemanager"
	"go.trai.ch/strata/internal/core/ports"
)

// NodeID is the unique identifier for the built-in plugin catalogue Graft node.
const NodeID graft.ID = "adapter.plugins"

func init() {
	graft.Register(graft.Node[*Set]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.NodeID, packagemanager.NodeID},
		Run: func(ctx context.Context) (*Set, error) {
			fsys, err := graft.Dep[ports.FileSystem](ctx)
			if err != nil {
				return nil, err
			}
			pm, err := graft.Dep[ports.PackageManager](ctx)
			if err != nil {
				return nil, err
			}
			return NewSet(fsys, pm), nil
		},
	})
}
