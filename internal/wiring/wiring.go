// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/strata/internal/adapters/cache"
	_ "go.trai.ch/strata/internal/adapters/config"
	_ "go.trai.ch/strata/internal/adapters/fs"
	_ "go.trai.ch/strata/internal/adapters/logger"
	_ "go.trai.ch/strata/internal/adapters/packagemanager"
	_ "go.trai.ch/strata/internal/adapters/plugins"
	_ "go.trai.ch/strata/internal/adapters/reporter"
	_ "go.trai.ch/strata/internal/adapters/rpc"
	_ "go.trai.ch/strata/internal/adapters/shell"
	_ "go.trai.ch/strata/internal/adapters/telemetry"
	_ "go.trai.ch/strata/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/strata/internal/app"
)
