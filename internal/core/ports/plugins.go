package ports

import (
	"context"

	"go.trai.ch/strata/internal/core/domain"
)

// ResolutionKind is the outcome of a single resolver.
type ResolutionKind uint8

const (
	// Unresolved means the resolver has no answer; the next resolver is tried.
	Unresolved ResolutionKind = iota
	// Excluded means the dependency is intentionally not part of the graph.
	Excluded
	// Resolved means the dependency points at a concrete source.
	Resolved
)

// String returns the name of the kind.
func (k ResolutionKind) String() string {
	switch k {
	case Excluded:
		return "excluded"
	case Resolved:
		return "resolved"
	default:
		return "unresolved"
	}
}

// Resolution is what a resolver returns for a dependency.
type Resolution struct {
	Kind     ResolutionKind `cbor:"kind"`
	FilePath string         `cbor:"filePath,omitempty"`
	Query    string         `cbor:"query,omitempty"`
	// Code is set for virtual modules that have no file on disk.
	Code        []byte `cbor:"code,omitempty"`
	Pipeline    string `cbor:"pipeline,omitempty"`
	SideEffects bool   `cbor:"sideEffects"`
	// CanDefer allows an optional dependency to stay deferred even when resolved.
	CanDefer bool `cbor:"canDefer,omitempty"`
	// InvalidateOnFileChange lists files whose change or creation may alter this result,
	// including probed candidates that did not exist.
	InvalidateOnFileChange []string          `cbor:"invalidateOnFileChange,omitempty"`
	Diagnostics            []domain.Diagnostic `cbor:"diagnostics,omitempty"`
}

// ResolverPlugin turns a dependency specifier into a concrete source.
//
//go:generate go run go.uber.org/mock/mockgen -source=plugins.go -destination=mocks/mock_plugins.go -package=mocks
type ResolverPlugin interface {
	Name() string
	Resolve(ctx context.Context, dep *domain.Dependency) (Resolution, error)
}

// TransformResult is the output of a transformer for one asset.
type TransformResult struct {
	Asset *domain.Asset `cbor:"asset"`
	// Dependencies discovered in the asset, without source fields filled in.
	Dependencies []*domain.Dependency `cbor:"dependencies,omitempty"`
	// DiscoveredAssets are extra assets produced by the transform, e.g. extracted styles.
	DiscoveredAssets       []*domain.Asset `cbor:"discoveredAssets,omitempty"`
	InvalidateOnFileChange []string        `cbor:"invalidateOnFileChange,omitempty"`
}

// TransformerPlugin converts an asset's code and discovers its dependencies.
// Transformers in a pipeline run in sequence, each receiving the previous output asset.
//
//go:generate go run go.uber.org/mock/mockgen -source=plugins.go -destination=mocks/mock_plugins.go -package=mocks
type TransformerPlugin interface {
	Name() string
	Transform(ctx context.Context, asset *domain.Asset) (TransformResult, error)
}

// PluginLoader instantiates plugins named in the plugin config.
// Implementations may run plugins in-process or proxy them to workers.
//
//go:generate go run go.uber.org/mock/mockgen -source=plugins.go -destination=mocks/mock_plugins.go -package=mocks
type PluginLoader interface {
	LoadResolver(ctx context.Context, node domain.PluginNode) (ResolverPlugin, error)
	LoadTransformer(ctx context.Context, node domain.PluginNode) (TransformerPlugin, error)
}

// Reintern swaps decoded environment copies in r for their shared instances.
func (r *TransformResult) Reintern() {
	r.Asset.Reintern()
	for _, d := range r.Dependencies {
		d.Reintern()
	}
	for _, a := range r.DiscoveredAssets {
		a.Reintern()
	}
}
