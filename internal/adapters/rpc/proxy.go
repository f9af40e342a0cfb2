package rpc

import (
	"context"
	"errors"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.PluginLoader      = (*Loader)(nil)
	_ ports.ResolverPlugin    = (*resolverProxy)(nil)
	_ ports.TransformerPlugin = (*transformerProxy)(nil)
)

// Loader loads plugins on every worker of a pool and hands out proxies that call them.
type Loader struct {
	pool *Pool
}

// NewLoader creates a Loader over pool.
func NewLoader(pool *Pool) *Loader {
	return &Loader{pool: pool}
}

// LoadResolver broadcasts the load of node and returns a proxy for it.
func (l *Loader) LoadResolver(ctx context.Context, node domain.PluginNode) (ports.ResolverPlugin, error) {
	if err := l.load(ctx, KindResolver, node); err != nil {
		return nil, err
	}
	return &resolverProxy{name: node.PackageName, pool: l.pool}, nil
}

// LoadTransformer broadcasts the load of node and returns a proxy for it.
func (l *Loader) LoadTransformer(ctx context.Context, node domain.PluginNode) (ports.TransformerPlugin, error) {
	if err := l.load(ctx, KindTransformer, node); err != nil {
		return nil, err
	}
	return &transformerProxy{name: node.PackageName, pool: l.pool}, nil
}

func (l *Loader) load(ctx context.Context, kind string, node domain.PluginNode) error {
	payload, err := marshal(loadRequest{Kind: kind, Name: node.PackageName, ResolveFrom: node.ResolveFrom})
	if err != nil {
		return err
	}
	if _, err := l.pool.Broadcast(ctx, MethodLoadPlugin, payload); err != nil {
		return zerr.With(errors.Join(domain.ErrPluginLoadFailed, err), "plugin", node.PackageName)
	}
	return nil
}

type resolverProxy struct {
	name string
	pool *Pool
}

func (p *resolverProxy) Name() string {
	return p.name
}

func (p *resolverProxy) Resolve(ctx context.Context, dep *domain.Dependency) (ports.Resolution, error) {
	payload, err := marshal(resolveRequest{Plugin: p.name, Dependency: dep})
	if err != nil {
		return ports.Resolution{}, err
	}

	out, err := p.pool.DispatchOne(ctx, MethodResolve, payload)
	if err != nil {
		return ports.Resolution{}, err
	}

	var res ports.Resolution
	if err := unmarshal(out, &res); err != nil {
		return ports.Resolution{}, err
	}
	return res, nil
}

type transformerProxy struct {
	name string
	pool *Pool
}

func (p *transformerProxy) Name() string {
	return p.name
}

func (p *transformerProxy) Transform(ctx context.Context, asset *domain.Asset) (ports.TransformResult, error) {
	payload, err := marshal(transformRequest{Plugin: p.name, Asset: asset})
	if err != nil {
		return ports.TransformResult{}, err
	}

	out, err := p.pool.DispatchOne(ctx, MethodTransform, payload)
	if err != nil {
		return ports.TransformResult{}, err
	}

	var res ports.TransformResult
	if err := unmarshal(out, &res); err != nil {
		return ports.TransformResult{}, err
	}
	res.Reintern()
	return res, nil
}
