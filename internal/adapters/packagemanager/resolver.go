// Package packagemanager locates packages installed under node_modules.
package packagemanager

import (
	"context"
	"path/filepath"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PackageManager = (*NodeModules)(nil)

// NodeModules resolves bare specifiers by walking node_modules directories upward.
type NodeModules struct {
	fs ports.FileSystem
}

// New returns a NodeModules resolver reading through fsys.
func New(fsys ports.FileSystem) *NodeModules {
	return &NodeModules{fs: fsys}
}

// Resolve locates specifier starting at the directory from.
// The returned path may lack an extension; callers probe extensions themselves.
func (n *NodeModules) Resolve(ctx context.Context, specifier, from string) (ports.ResolvedModule, error) {
	name, sub := SplitSpecifier(specifier)
	if name == "" {
		return ports.ResolvedModule{}, zerr.Wrap(domain.ErrModuleNotFound, specifier)
	}

	var invalidations []string
	for dir := from; ; {
		if err := ctx.Err(); err != nil {
			return ports.ResolvedModule{}, err
		}

		pkgDir := filepath.Join(dir, domain.NodeModulesDirName, filepath.FromSlash(name))
		manifestPath := filepath.Join(pkgDir, domain.PackageJSONFileName)
		invalidations = append(invalidations, manifestPath)

		if n.fs.IsDir(pkgDir) {
			path, err := n.entryFor(pkgDir, manifestPath, sub)
			if err != nil {
				return ports.ResolvedModule{}, zerr.With(err, "specifier", specifier)
			}
			return ports.ResolvedModule{FilePath: path, Invalidations: invalidations}, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ports.ResolvedModule{Invalidations: invalidations},
		zerr.With(zerr.Wrap(domain.ErrModuleNotFound, specifier), "from", from)
}

func (n *NodeModules) entryFor(pkgDir, manifestPath, sub string) (string, error) {
	var manifest *Manifest
	if n.fs.IsFile(manifestPath) {
		m, _, err := ReadManifest(n.fs, manifestPath)
		if err != nil {
			return "", err
		}
		manifest = m
	}

	if sub == "" {
		entry := "index.js"
		if manifest != nil {
			entry = manifest.EntryPoint()
		}
		return filepath.Join(pkgDir, filepath.FromSlash(entry)), nil
	}

	if manifest != nil {
		if mapped := manifest.Subpath(sub); mapped != "" {
			return filepath.Join(pkgDir, filepath.FromSlash(mapped)), nil
		}
	}
	return filepath.Join(pkgDir, filepath.FromSlash(sub)), nil
}

// ResolveDevDependency locates a tool package and hashes its manifest.
func (n *NodeModules) ResolveDevDependency(ctx context.Context, name, from string) (ports.DevDependency, error) {
	resolved, err := n.Resolve(ctx, name, from)
	if err != nil {
		return ports.DevDependency{}, err
	}

	// The last manifest consulted belongs to the package that was found.
	hash := ""
	manifestPath := resolved.Invalidations[len(resolved.Invalidations)-1]
	if data, err := n.fs.ReadFile(manifestPath); err == nil {
		hash = domain.HashBytes(data)
	}

	return ports.DevDependency{FilePath: resolved.FilePath, Hash: hash}, nil
}

// SplitSpecifier splits a bare specifier into its package name and subpath.
// "@scope/pkg/a/b" yields ("@scope/pkg", "a/b").
func SplitSpecifier(specifier string) (name, sub string) {
	parts := strings.Split(specifier, "/")
	n := 1
	if strings.HasPrefix(specifier, "@") {
		n = 2
	}
	if len(parts) < n || parts[0] == "" {
		return "", ""
	}
	return strings.Join(parts[:n], "/"), strings.Join(parts[n:], "/")
}
