package ports

import (
	"context"

	"go.trai.ch/strata/internal/core/domain"
)

// PluginConfigLoader loads the merged plugin configuration of a project.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type PluginConfigLoader interface {
	// Load returns the project's plugin config with its extends chain merged, base first.
	// The second return value lists every config file consulted.
	Load(ctx context.Context, projectRoot string) (*domain.PluginConfig, []string, error)
}

// OptionsLoader loads runtime options from file and environment.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type OptionsLoader interface {
	Load(ctx context.Context, projectRoot string) (domain.BuildOptions, error)
}
