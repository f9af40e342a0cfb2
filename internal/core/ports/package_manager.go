package ports

import "context"

// ResolvedModule is a module located by the package manager.
type ResolvedModule struct {
	FilePath string
	// Invalidations are the manifests and candidates consulted while resolving.
	Invalidations []string
}

// DevDependency is a tool-side package such as a plugin or a shared config.
type DevDependency struct {
	FilePath string
	// Hash identifies the installed version so caches keyed on it invalidate on upgrade.
	Hash string
}

// PackageManager locates installed packages.
//
//go:generate go run go.uber.org/mock/mockgen -source=package_manager.go -destination=mocks/mock_package_manager.go -package=mocks
type PackageManager interface {
	// Resolve resolves a bare specifier such as "lodash/fp" from the directory from.
	Resolve(ctx context.Context, specifier, from string) (ResolvedModule, error)
	// ResolveDevDependency resolves a tool package by name from the directory from.
	ResolveDevDependency(ctx context.Context, name, from string) (DevDependency, error)
}
