package domain

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PluginNode names one plugin in a pipeline.
// ResolveFrom is the config file that declared it, used to locate the plugin package.
type PluginNode struct {
	PackageName string `cbor:"packageName" json:"packageName"`
	ResolveFrom string `cbor:"resolveFrom" json:"resolveFrom"`
}

// GlobPipeline maps a file glob to an ordered list of plugins.
// Globs may carry a named pipeline prefix, e.g. "raw:*.svg".
type GlobPipeline struct {
	Glob    string       `json:"glob"`
	Plugins []PluginNode `json:"plugins"`
}

// Pipeline returns the named pipeline prefix of the glob and the bare pattern.
func (g GlobPipeline) Pipeline() (name, pattern string) {
	if i := strings.Index(g.Glob, ":"); i > 0 {
		return g.Glob[:i], g.Glob[i+1:]
	}
	return "", g.Glob
}

// PluginConfig is the merged plugin configuration for a project.
// Glob maps keep declaration order; the first matching glob wins.
type PluginConfig struct {
	FilePath     string         `json:"filePath"`
	Resolvers    []PluginNode   `json:"resolvers"`
	Transformers []GlobPipeline `json:"transformers"`
	Bundler      *PluginNode    `json:"bundler,omitempty"`
	Namers       []PluginNode   `json:"namers"`
	Runtimes     []PluginNode   `json:"runtimes"`
	Packagers    []GlobPipeline `json:"packagers"`
	Optimizers   []GlobPipeline `json:"optimizers"`
	Compressors  []GlobPipeline `json:"compressors"`
	Reporters    []PluginNode   `json:"reporters"`
	Validators   []GlobPipeline `json:"validators"`
}

// TransformersFor returns the transformer pipeline for path.
// A named pipeline without a matching glob falls back to the unnamed globs.
func (c *PluginConfig) TransformersFor(path, pipeline string) []PluginNode {
	if pipeline != "" {
		if plugins := MatchGlobPipelines(c.Transformers, path, pipeline); plugins != nil {
			return plugins
		}
	}
	return MatchGlobPipelines(c.Transformers, path, "")
}

// ID returns a stable hash of the config, used to scope cached transform results.
func (c *PluginConfig) ID() string {
	h := NewIDHasher()
	writeNodes := func(nodes []PluginNode) {
		for _, n := range nodes {
			h.String(n.PackageName)
		}
		h.String("")
	}
	writeGlobs := func(globs []GlobPipeline) {
		for _, g := range globs {
			h.String(g.Glob)
			writeNodes(g.Plugins)
		}
		h.String("")
	}

	writeNodes(c.Resolvers)
	writeGlobs(c.Transformers)
	if c.Bundler != nil {
		h.String(c.Bundler.PackageName)
	} else {
		h.String("")
	}
	writeNodes(c.Namers)
	writeNodes(c.Runtimes)
	writeGlobs(c.Packagers)
	writeGlobs(c.Optimizers)
	writeGlobs(c.Compressors)
	writeNodes(c.Reporters)
	writeGlobs(c.Validators)
	return h.Sum()
}

// MatchGlobPipelines returns the plugins of the first glob matching path for pipeline.
func MatchGlobPipelines(globs []GlobPipeline, path, pipeline string) []PluginNode {
	base := filepath.ToSlash(filepath.Base(path))
	full := filepath.ToSlash(path)

	for _, g := range globs {
		name, pattern := g.Pipeline()
		if name != pipeline {
			continue
		}
		if MatchGlob(pattern, base) || MatchGlob(pattern, full) {
			return g.Plugins
		}
	}
	return nil
}

// MatchGlob reports whether name matches the doublestar pattern. Invalid patterns never match.
func MatchGlob(pattern, name string) bool {
	matched, err := doublestar.Match(pattern, name)
	return err == nil && matched
}
