package rpc

import (
	"context"
	"sync"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// Catalog looks up plugin implementations by package name.
type Catalog interface {
	Resolver(name string) (ports.ResolverPlugin, error)
	Transformer(name string) (ports.TransformerPlugin, error)
}

// Host is the worker side of the plugin protocol.
// A plugin must be loaded through MethodLoadPlugin before it can be called.
type Host struct {
	catalog Catalog

	mu           sync.RWMutex
	resolvers    map[string]ports.ResolverPlugin
	transformers map[string]ports.TransformerPlugin
}

// NewHost creates a Host serving plugins from catalog.
func NewHost(catalog Catalog) *Host {
	return &Host{
		catalog:      catalog,
		resolvers:    make(map[string]ports.ResolverPlugin),
		transformers: make(map[string]ports.TransformerPlugin),
	}
}

// Handle executes one call and returns its encoded result.
func (h *Host) Handle(ctx context.Context, method string, payload []byte) ([]byte, error) {
	switch method {
	case MethodLoadPlugin:
		var req loadRequest
		if err := unmarshal(payload, &req); err != nil {
			return nil, err
		}
		return nil, h.load(req)

	case MethodResolve:
		var req resolveRequest
		if err := unmarshal(payload, &req); err != nil {
			return nil, err
		}
		req.Dependency.Reintern()
		return h.resolve(ctx, req)

	case MethodTransform:
		var req transformRequest
		if err := unmarshal(payload, &req); err != nil {
			return nil, err
		}
		req.Asset.Reintern()
		return h.transform(ctx, req)

	default:
		return nil, zerr.Wrap(domain.ErrUnknownWorkerMethod, method)
	}
}

// Loaded reports whether the named plugin of kind has been loaded.
func (h *Host) Loaded(kind, name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch kind {
	case KindResolver:
		_, ok := h.resolvers[name]
		return ok
	case KindTransformer:
		_, ok := h.transformers[name]
		return ok
	default:
		return false
	}
}

func (h *Host) load(req loadRequest) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch req.Kind {
	case KindResolver:
		if _, ok := h.resolvers[req.Name]; ok {
			return nil
		}
		r, err := h.catalog.Resolver(req.Name)
		if err != nil {
			return err
		}
		h.resolvers[req.Name] = r
	case KindTransformer:
		if _, ok := h.transformers[req.Name]; ok {
			return nil
		}
		t, err := h.catalog.Transformer(req.Name)
		if err != nil {
			return err
		}
		h.transformers[req.Name] = t
	default:
		return zerr.With(zerr.Wrap(domain.ErrPluginNotFound, req.Name), "kind", req.Kind)
	}
	return nil
}

func (h *Host) resolve(ctx context.Context, req resolveRequest) ([]byte, error) {
	h.mu.RLock()
	r, ok := h.resolvers[req.Plugin]
	h.mu.RUnlock()
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrPluginNotLoaded, req.Plugin), "kind", KindResolver)
	}

	res, err := r.Resolve(ctx, req.Dependency)
	if err != nil {
		return nil, err
	}
	return marshal(res)
}

func (h *Host) transform(ctx context.Context, req transformRequest) ([]byte, error) {
	h.mu.RLock()
	t, ok := h.transformers[req.Plugin]
	h.mu.RUnlock()
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrPluginNotLoaded, req.Plugin), "kind", KindTransformer)
	}

	res, err := t.Transform(ctx, req.Asset)
	if err != nil {
		return nil, err
	}
	return marshal(res)
}
