package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/fs"
	"go.trai.ch/strata/internal/adapters/packagemanager"
	"go.trai.ch/strata/internal/core/ports"
)

const (
	// OptionsNodeID is the unique identifier for the options loader Graft node.
	OptionsNodeID graft.ID = "adapter.options_loader"
	// PluginConfigNodeID is the unique identifier for the plugin config loader Graft node.
	PluginConfigNodeID graft.ID = "adapter.plugin_config_loader"
)

func init() {
	graft.Register(graft.Node[ports.OptionsLoader]{
		ID:        OptionsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.NodeID},
		Run: func(ctx context.Context) (ports.OptionsLoader, error) {
			fsys, err := graft.Dep[ports.FileSystem](ctx)
			if err != nil {
				return nil, err
			}
			return NewOptionsLoader(fsys), nil
		},
	})

	graft.Register(graft.Node[ports.PluginConfigLoader]{
		ID:        PluginConfigNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.NodeID, packagemanager.NodeID},
		Run: func(ctx context.Context) (ports.PluginConfigLoader, error) {
			fsys, err := graft.Dep[ports.FileSystem](ctx)
			if err != nil {
				return nil, err
			}
			pm, err := graft.Dep[ports.PackageManager](ctx)
			if err != nil {
				return nil, err
			}
			return NewPluginConfigLoader(fsys, pm), nil
		},
	})
}
