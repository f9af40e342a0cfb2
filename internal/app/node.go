package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/cache"     //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/plugins"   //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/reporter"  //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/rpc"       //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App       *App
	Logger    ports.Logger
	Telemetry *telemetry.Provider
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.NodeID,
			config.OptionsNodeID,
			config.PluginConfigNodeID,
			cache.NodeID,
			plugins.NodeID,
			rpc.NodeID,
			logger.NodeID,
			reporter.NodeID,
			watcher.NodeID,
			telemetry.NodeID,
			shell.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			telemetry.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			provider, err := graft.Dep[*telemetry.Provider](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log, Telemetry: provider}, nil
		},
	})
}

//nolint:cyclop // one lookup per collaborator
func runAppNode(ctx context.Context) (*App, error) {
	var (
		deps Deps
		err  error
	)
	if deps.FileSystem, err = graft.Dep[ports.FileSystem](ctx); err != nil {
		return nil, err
	}
	if deps.Options, err = graft.Dep[ports.OptionsLoader](ctx); err != nil {
		return nil, err
	}
	if deps.PluginConfig, err = graft.Dep[ports.PluginConfigLoader](ctx); err != nil {
		return nil, err
	}
	if deps.Caches, err = graft.Dep[ports.CacheOpener](ctx); err != nil {
		return nil, err
	}
	if deps.Plugins, err = graft.Dep[*plugins.Set](ctx); err != nil {
		return nil, err
	}
	if deps.Connector, err = graft.Dep[*rpc.Connector](ctx); err != nil {
		return nil, err
	}
	if deps.Logger, err = graft.Dep[ports.Logger](ctx); err != nil {
		return nil, err
	}
	if deps.Sink, err = graft.Dep[ports.DiagnosticSink](ctx); err != nil {
		return nil, err
	}
	if deps.Watcher, err = graft.Dep[ports.Watcher](ctx); err != nil {
		return nil, err
	}
	if deps.Telemetry, err = graft.Dep[*telemetry.Provider](ctx); err != nil {
		return nil, err
	}
	if deps.Runner, err = graft.Dep[ports.CommandRunner](ctx); err != nil {
		return nil, err
	}
	return New(deps), nil
}
