package domain

import "path/filepath"

// SpecifierType describes how a specifier was written in source.
type SpecifierType string

const (
	// SpecifierESM is an ES module import or re-export.
	SpecifierESM SpecifierType = "esm"
	// SpecifierCommonJS is a require call.
	SpecifierCommonJS SpecifierType = "commonjs"
	// SpecifierURL is a URL reference such as CSS url() or an entry path.
	SpecifierURL SpecifierType = "url"
	// SpecifierCustom is resolved by plugin-specific rules.
	SpecifierCustom SpecifierType = "custom"
)

// Priority controls when a dependency is loaded at runtime.
type Priority string

const (
	// PrioritySync is loaded together with its parent.
	PrioritySync Priority = "sync"
	// PriorityParallel is loaded alongside its parent.
	PriorityParallel Priority = "parallel"
	// PriorityLazy is loaded on demand, e.g. dynamic import().
	PriorityLazy Priority = "lazy"
)

// BundleBehavior controls how the resolved asset is placed into bundles.
type BundleBehavior string

const (
	// BundleNormal places the asset in the regular bundle graph.
	BundleNormal BundleBehavior = ""
	// BundleInline inlines the asset into its parent.
	BundleInline BundleBehavior = "inline"
	// BundleIsolated places the asset in its own bundle.
	BundleIsolated BundleBehavior = "isolated"
)

// Position is a 1-based line and column in a source file.
type Position struct {
	Line   int `cbor:"line" json:"line"`
	Column int `cbor:"column" json:"column"`
}

// SourceLocation is a span of source text.
type SourceLocation struct {
	FilePath string   `cbor:"filePath" json:"filePath"`
	Start    Position `cbor:"start" json:"start"`
	End      Position `cbor:"end" json:"end"`
}

// DependencyID is the content-derived identity of a dependency.
type DependencyID string

// Dependency is an edge from an asset, or the root, to a specifier that must be resolved.
type Dependency struct {
	Specifier         string            `cbor:"specifier" json:"specifier"`
	SpecifierType     SpecifierType     `cbor:"specifierType" json:"specifierType"`
	ResolveFrom       string            `cbor:"resolveFrom,omitempty" json:"resolveFrom,omitempty"`
	SourceAssetID     AssetID           `cbor:"sourceAssetId,omitempty" json:"sourceAssetId,omitempty"`
	SourcePath        string            `cbor:"sourcePath,omitempty" json:"sourcePath,omitempty"`
	Priority          Priority          `cbor:"priority" json:"priority"`
	BundleBehavior    BundleBehavior    `cbor:"bundleBehavior,omitempty" json:"bundleBehavior,omitempty"`
	IsEntry           bool              `cbor:"isEntry,omitempty" json:"isEntry,omitempty"`
	IsOptional        bool              `cbor:"isOptional,omitempty" json:"isOptional,omitempty"`
	NeedsStableName   bool              `cbor:"needsStableName,omitempty" json:"needsStableName,omitempty"`
	Target            *Target           `cbor:"target,omitempty" json:"target,omitempty"`
	Env               *Environment      `cbor:"env,omitempty" json:"env,omitempty"`
	PackageConditions []string          `cbor:"packageConditions,omitempty" json:"packageConditions,omitempty"`
	Pipeline          string            `cbor:"pipeline,omitempty" json:"pipeline,omitempty"`
	Loc               *SourceLocation   `cbor:"loc,omitempty" json:"loc,omitempty"`
	Meta              map[string]string `cbor:"meta,omitempty" json:"meta,omitempty"`
}

// ID returns the dependency's identity.
// It covers the fields that change what the dependency resolves to or how a failed
// resolution is reported, so two imports of the same specifier from the same asset
// collapse into one node only when they agree on both.
func (d *Dependency) ID() DependencyID {
	h := NewIDHasher().
		String(string(d.SourceAssetID)).
		String(d.Specifier).
		String(string(d.SpecifierType)).
		String(d.Env.ID())

	if d.Target != nil {
		h.String(d.Target.Name).String(d.Target.DistDir)
	} else {
		h.String("").String("")
	}

	h.String(d.Pipeline).
		String(string(d.BundleBehavior)).
		String(string(d.Priority)).
		Bool(d.IsOptional).
		SortedStrings(d.PackageConditions)

	if d.IsEntry {
		h.String(d.ResolveFrom)
	}

	return DependencyID(h.Sum())
}

// ResolveDir returns the directory relative specifiers are resolved against.
// ResolveFrom names a directory; otherwise the importing file's directory is used.
func (d *Dependency) ResolveDir() string {
	if d.ResolveFrom != "" {
		return d.ResolveFrom
	}
	return filepath.Dir(d.SourcePath)
}

// Target is a named build output with its own environment.
type Target struct {
	Name      string       `cbor:"name" json:"name"`
	DistDir   string       `cbor:"distDir" json:"distDir"`
	DistEntry string       `cbor:"distEntry,omitempty" json:"distEntry,omitempty"`
	PublicURL string       `cbor:"publicUrl,omitempty" json:"publicUrl,omitempty"`
	Env       *Environment `cbor:"env" json:"env"`
}

// Entry is a resolved build entry point.
type Entry struct {
	FilePath string `cbor:"filePath" json:"filePath"`
	// Target restricts the entry to a single named target when set.
	Target string `cbor:"target,omitempty" json:"target,omitempty"`
}

// Reintern swaps decoded environment copies for their shared instances.
func (d *Dependency) Reintern() {
	if d == nil {
		return
	}
	d.Env = Reintern(d.Env)
	if d.Target != nil {
		d.Target.Env = Reintern(d.Target.Env)
	}
}
