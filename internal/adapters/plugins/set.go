// Package plugins provides the built-in resolver and transformers.
package plugins

import (
	"context"
	"maps"
	"slices"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PluginLoader = (*Set)(nil)

// Set is the catalogue of built-in plugins keyed by package name.
// Built-in plugins are stateless, so one instance serves every pipeline.
type Set struct {
	resolvers    map[string]ports.ResolverPlugin
	transformers map[string]ports.TransformerPlugin
}

// NewSet creates the catalogue.
func NewSet(fsys ports.FileSystem, pm ports.PackageManager) *Set {
	resolvers := []ports.ResolverPlugin{NewResolver(fsys, pm)}
	transformers := []ports.TransformerPlugin{
		JSTransformer{},
		JSONTransformer{},
		CSSTransformer{},
		RawTransformer{},
	}

	s := &Set{
		resolvers:    make(map[string]ports.ResolverPlugin, len(resolvers)),
		transformers: make(map[string]ports.TransformerPlugin, len(transformers)),
	}
	for _, r := range resolvers {
		s.resolvers[r.Name()] = r
	}
	for _, t := range transformers {
		s.transformers[t.Name()] = t
	}
	return s
}

// Resolver returns the resolver named name.
func (s *Set) Resolver(name string) (ports.ResolverPlugin, error) {
	r, ok := s.resolvers[name]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrPluginNotFound, name), "kind", "resolver")
	}
	return r, nil
}

// Transformer returns the transformer named name.
func (s *Set) Transformer(name string) (ports.TransformerPlugin, error) {
	t, ok := s.transformers[name]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrPluginNotFound, name), "kind", "transformer")
	}
	return t, nil
}

// Names returns every plugin name in sorted order.
func (s *Set) Names() []string {
	names := slices.Collect(maps.Keys(s.resolvers))
	names = slices.AppendSeq(names, maps.Keys(s.transformers))
	slices.Sort(names)
	return names
}

// LoadResolver loads a built-in resolver in-process.
func (s *Set) LoadResolver(_ context.Context, node domain.PluginNode) (ports.ResolverPlugin, error) {
	return s.Resolver(node.PackageName)
}

// LoadTransformer loads a built-in transformer in-process.
func (s *Set) LoadTransformer(_ context.Context, node domain.PluginNode) (ports.TransformerPlugin, error) {
	return s.Transformer(node.PackageName)
}
