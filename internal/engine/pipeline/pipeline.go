// Package pipeline turns a plugin configuration into callable resolver and transformer pipelines.
//
// Plugins are loaded on first use and memoized per (package, resolve-from) pair.
// A failed load is forgotten so the next call retries it.
// Resolvers are first-responder-wins; transformers run in sequence, each receiving
// the previous plugin's output asset.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

// Pipelines routes resolve and transform calls through the configured plugins.
type Pipelines struct {
	config *domain.PluginConfig
	loader ports.PluginLoader

	mu           sync.Mutex
	resolvers    map[domain.PluginNode]*pluginLoad[ports.ResolverPlugin]
	transformers map[domain.PluginNode]*pluginLoad[ports.TransformerPlugin]
}

// pluginLoad is a load shared by concurrent callers of the same plugin node.
type pluginLoad[T any] struct {
	get func() (T, error)
}

// New creates pipelines for config, loading plugins through loader.
func New(config *domain.PluginConfig, loader ports.PluginLoader) *Pipelines {
	return &Pipelines{
		config:       config,
		loader:       loader,
		resolvers:    make(map[domain.PluginNode]*pluginLoad[ports.ResolverPlugin]),
		transformers: make(map[domain.PluginNode]*pluginLoad[ports.TransformerPlugin]),
	}
}

// ID identifies the plugin configuration. Cached transform results are scoped by it.
func (p *Pipelines) ID() string {
	return p.config.ID()
}

// Config returns the plugin configuration.
func (p *Pipelines) Config() *domain.PluginConfig {
	return p.config
}

// Resolve runs the resolver pipeline for dep.
// The first resolver answering Resolved or Excluded wins. When none does, the result is
// Unresolved and carries the diagnostics and file invalidations of every resolver tried.
// A resolver failure is returned as a DiagnosticError attributed to that resolver.
func (p *Pipelines) Resolve(ctx context.Context, dep *domain.Dependency) (ports.Resolution, string, error) {
	if len(p.config.Resolvers) == 0 {
		return ports.Resolution{}, "", domain.NewDiagnosticError(domain.ErrResolutionFailed, domain.Diagnostic{
			Severity: domain.SeverityError,
			Message:  "no resolvers configured",
			Origin:   p.config.FilePath,
		})
	}

	var (
		invalidations []string
		diags         []domain.Diagnostic
	)
	for _, node := range p.config.Resolvers {
		resolver, err := p.resolver(ctx, node)
		if err != nil {
			return ports.Resolution{}, "", loadFailure(domain.ErrResolutionFailed, node, err)
		}

		res, err := resolver.Resolve(ctx, dep)
		if err != nil {
			return ports.Resolution{}, "", resolveFailure(resolver.Name(), dep, err)
		}

		invalidations = append(invalidations, res.InvalidateOnFileChange...)
		diags = append(diags, withOrigin(res.Diagnostics, resolver.Name())...)

		if res.Kind == ports.Unresolved {
			continue
		}
		res.InvalidateOnFileChange = invalidations
		res.Diagnostics = diags
		return res, resolver.Name(), nil
	}

	return ports.Resolution{
		Kind:                   ports.Unresolved,
		InvalidateOnFileChange: invalidations,
		Diagnostics:            diags,
	}, "", nil
}

// Transform runs the transformer pipeline matching asset's path and pipeline name.
func (p *Pipelines) Transform(ctx context.Context, asset *domain.Asset) (ports.TransformResult, error) {
	nodes := p.config.TransformersFor(asset.FilePath, asset.Pipeline)
	if len(nodes) == 0 {
		return ports.TransformResult{}, domain.NewDiagnosticError(domain.ErrTransformFailed, domain.Diagnostic{
			Severity:   domain.SeverityError,
			Message:    fmt.Sprintf("no transformers found for %s", asset.FilePath),
			Origin:     p.config.FilePath,
			CodeFrames: []domain.CodeFrame{{FilePath: asset.FilePath}},
			Hints:      []string{"add a glob matching this file to the transformers section of the plugin config"},
		})
	}

	out := ports.TransformResult{Asset: asset}
	for _, node := range nodes {
		transformer, err := p.transformer(ctx, node)
		if err != nil {
			return ports.TransformResult{}, loadFailure(domain.ErrTransformFailed, node, err)
		}

		res, err := transformer.Transform(ctx, out.Asset)
		if err != nil {
			return ports.TransformResult{}, transformFailure(transformer.Name(), out.Asset, err)
		}

		if res.Asset != nil {
			out.Asset = res.Asset
		}
		out.Dependencies = append(out.Dependencies, res.Dependencies...)
		out.DiscoveredAssets = append(out.DiscoveredAssets, res.DiscoveredAssets...)
		out.InvalidateOnFileChange = append(out.InvalidateOnFileChange, res.InvalidateOnFileChange...)
	}
	return out, nil
}

func (p *Pipelines) resolver(ctx context.Context, node domain.PluginNode) (ports.ResolverPlugin, error) {
	return loadPlugin(ctx, &p.mu, p.resolvers, node, p.loader.LoadResolver)
}

func (p *Pipelines) transformer(ctx context.Context, node domain.PluginNode) (ports.TransformerPlugin, error) {
	return loadPlugin(ctx, &p.mu, p.transformers, node, p.loader.LoadTransformer)
}

// loadPlugin returns the memoized plugin for node, starting the load if none is in flight.
// Callers waiting on a failed load all see its error, and the entry is dropped afterwards.
func loadPlugin[T any](
	ctx context.Context,
	mu *sync.Mutex,
	loads map[domain.PluginNode]*pluginLoad[T],
	node domain.PluginNode,
	load func(context.Context, domain.PluginNode) (T, error),
) (T, error) {
	mu.Lock()
	l, ok := loads[node]
	if !ok {
		// The load outlives the first caller, so it must not inherit its cancellation.
		loadCtx := context.WithoutCancel(ctx)
		l = &pluginLoad[T]{get: sync.OnceValues(func() (T, error) {
			return load(loadCtx, node)
		})}
		loads[node] = l
	}
	mu.Unlock()

	plugin, err := l.get()
	if err != nil {
		mu.Lock()
		if loads[node] == l {
			delete(loads, node)
		}
		mu.Unlock()
	}
	return plugin, err
}

func loadFailure(kind error, node domain.PluginNode, err error) error {
	return domain.NewDiagnosticError(kind, domain.Diagnostic{
		Severity: domain.SeverityError,
		Message:  fmt.Sprintf("%s %s: %v", domain.ErrPluginLoadFailed.Error(), node.PackageName, err),
		Origin:   node.PackageName,
		Meta:     map[string]string{"resolveFrom": node.ResolveFrom},
	})
}

func resolveFailure(origin string, dep *domain.Dependency, err error) error {
	diags := withOrigin(domain.DiagnosticsOf(err, origin), origin)
	if len(diags) == 1 && len(diags[0].CodeFrames) == 0 {
		diags[0].Message = fmt.Sprintf("failed to resolve '%s': %s", dep.Specifier, diags[0].Message)
		if frame, ok := DependencyFrame(dep); ok {
			diags[0].CodeFrames = []domain.CodeFrame{frame}
		}
	}
	return domain.NewDiagnosticError(domain.ErrResolutionFailed, diags...)
}

func transformFailure(origin string, asset *domain.Asset, err error) error {
	diags := withOrigin(domain.DiagnosticsOf(err, origin), origin)
	for i := range diags {
		if len(diags[i].CodeFrames) == 0 {
			diags[i].CodeFrames = []domain.CodeFrame{{FilePath: asset.FilePath}}
		}
	}
	return domain.NewDiagnosticError(domain.ErrTransformFailed, diags...)
}

// withOrigin returns a copy of diags with empty origins set to origin.
func withOrigin(diags []domain.Diagnostic, origin string) []domain.Diagnostic {
	if len(diags) == 0 {
		return nil
	}
	out := slices.Clone(diags)
	for i := range out {
		if out[i].Origin == "" {
			out[i].Origin = origin
		}
	}
	return out
}

// DependencyFrame returns a code frame pointing at the place dep was written, if known.
func DependencyFrame(dep *domain.Dependency) (domain.CodeFrame, bool) {
	if dep.Loc == nil {
		return domain.CodeFrame{}, false
	}
	path := dep.Loc.FilePath
	if path == "" {
		path = dep.SourcePath
	}
	return domain.CodeFrame{
		FilePath: path,
		Highlights: []domain.CodeHighlight{{
			Start:   dep.Loc.Start,
			End:     dep.Loc.End,
			Message: "cannot resolve '" + dep.Specifier + "'",
		}},
	}, true
}
