package plugins

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

// ResolverName is the package name of the default resolver.
const ResolverName = "strata-resolver-default"

// Extensions are probed in order when a specifier names a file without its extension.
var Extensions = []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".tsx", ".json", ".css"}

var _ ports.ResolverPlugin = (*Resolver)(nil)

// Resolver resolves relative, absolute and bare specifiers against the filesystem.
type Resolver struct {
	fs ports.FileSystem
	pm ports.PackageManager
}

// NewResolver creates the default resolver.
func NewResolver(fsys ports.FileSystem, pm ports.PackageManager) *Resolver {
	return &Resolver{fs: fsys, pm: pm}
}

// Name returns the plugin package name.
func (r *Resolver) Name() string {
	return ResolverName
}

// Resolve maps dep to a file. Every candidate path that was looked at is returned as an invalidation,
// so creating a file that would have won the probe invalidates the result.
func (r *Resolver) Resolve(ctx context.Context, dep *domain.Dependency) (ports.Resolution, error) {
	specifier, query, _ := strings.Cut(dep.Specifier, "?")

	switch {
	case specifier == "":
		return ports.Resolution{Kind: ports.Unresolved}, nil
	case isURL(specifier):
		return ports.Resolution{Kind: ports.Excluded}, nil
	case !isRelative(specifier) && !filepath.IsAbs(specifier) && isBuiltin(specifier):
		return r.resolveBuiltin(dep, specifier), nil
	}

	var base string
	var invalidations []string

	switch {
	case filepath.IsAbs(specifier):
		base = filepath.Clean(specifier)
	case isRelative(specifier):
		base = filepath.Join(dep.ResolveDir(), filepath.FromSlash(specifier))
	default:
		if dep.Env != nil && !dep.Env.IncludeNodeModules {
			return ports.Resolution{Kind: ports.Excluded}, nil
		}

		mod, err := r.pm.Resolve(ctx, specifier, dep.ResolveDir())
		if errors.Is(err, domain.ErrModuleNotFound) {
			return ports.Resolution{Kind: ports.Unresolved, InvalidateOnFileChange: mod.Invalidations}, nil
		}
		if err != nil {
			return ports.Resolution{}, err
		}
		base = mod.FilePath
		invalidations = mod.Invalidations
	}

	path, probed, ok := r.probe(base)
	invalidations = append(invalidations, probed...)
	if !ok {
		return ports.Resolution{Kind: ports.Unresolved, InvalidateOnFileChange: invalidations}, nil
	}

	canonical, err := r.fs.Canonicalize(path)
	if err != nil {
		return ports.Resolution{}, err
	}

	return ports.Resolution{
		Kind:                   ports.Resolved,
		FilePath:               canonical,
		Query:                  query,
		Pipeline:               dep.Pipeline,
		SideEffects:            true,
		CanDefer:               dep.IsOptional,
		InvalidateOnFileChange: invalidations,
	}, nil
}

func (r *Resolver) resolveBuiltin(dep *domain.Dependency, specifier string) ports.Resolution {
	if dep.Env != nil && dep.Env.IsNode() {
		return ports.Resolution{Kind: ports.Excluded}
	}

	envContext := domain.ContextBrowser
	if dep.Env != nil {
		envContext = dep.Env.Context
	}
	return ports.Resolution{
		Kind: ports.Unresolved,
		Diagnostics: []domain.Diagnostic{{
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("node builtin %q is not available in %s environments", specifier, envContext),
			Origin:   ResolverName,
		}},
	}
}

// probe returns the first existing candidate for base and every candidate examined on the way.
func (r *Resolver) probe(base string) (string, []string, bool) {
	candidates := make([]string, 0, 2+2*len(Extensions))
	candidates = append(candidates, base)
	for _, ext := range Extensions {
		candidates = append(candidates, base+ext)
	}
	for _, ext := range Extensions {
		candidates = append(candidates, filepath.Join(base, "index"+ext))
	}

	probed := make([]string, 0, len(candidates))
	for _, c := range candidates {
		probed = append(probed, c)
		if r.fs.IsFile(c) {
			return c, probed, true
		}
	}
	return "", probed, false
}
