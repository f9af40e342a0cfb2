// Package compilation builds the asset graph of a project through the request graph.
//
// A build runs one AssetGraphRequest. It expands entries and targets into entry
// dependencies, then resolves and transforms until no unresolved dependency is left.
// Every step is a request, so a rebuild after Invalidate only repeats the steps whose
// inputs changed, and transforms are memoized in the persistent cache across processes.
package compilation

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"go.trai.ch/strata/internal/adapters/cache"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/assetgraph"
	"go.trai.ch/strata/internal/engine/pipeline"
	"go.trai.ch/strata/internal/engine/requestgraph"
	"go.trai.ch/zerr"
)

// Origin attributes diagnostics raised by the build itself rather than by a plugin.
const Origin = "strata"

// Config holds the collaborators of a Compilation.
type Config struct {
	Options    domain.BuildOptions
	FileSystem ports.FileSystem
	// Cache memoizes transforms across processes. Nil uses an in-memory cache.
	Cache ports.Cache
	// Stats and Tracer may be nil.
	Stats     ports.StatsRecorder
	Tracer    ports.Tracer
	Pipelines *pipeline.Pipelines
	// Version scopes cached transforms to the tool version.
	Version string
}

// Result is the outcome of a successful build.
type Result struct {
	Graph *assetgraph.Graph
	// Diagnostics holds warnings and infos, e.g. deferred optional dependencies.
	Diagnostics []domain.Diagnostic
}

// Compilation owns the request graph of one project and its plugin pipelines.
type Compilation struct {
	options     domain.BuildOptions
	root        string
	fs          ports.FileSystem
	cache       ports.Cache
	stats       ports.StatsRecorder
	pipelines   *pipeline.Pipelines
	version     string
	parallelism int
	requests    *requestgraph.Graph
}

// New creates a Compilation.
func New(cfg Config) *Compilation {
	c := cfg.Cache
	if c == nil {
		c = cache.NewMemory(cfg.Stats)
	}

	parallelism := cfg.Options.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	return &Compilation{
		options:     cfg.Options,
		root:        filepath.Clean(cfg.Options.ProjectRoot),
		fs:          cfg.FileSystem,
		cache:       c,
		stats:       cfg.Stats,
		pipelines:   cfg.Pipelines,
		version:     cfg.Version,
		parallelism: parallelism,
		requests:    requestgraph.New(cfg.FileSystem, cfg.Stats, cfg.Tracer),
	}
}

// Build runs the asset graph request in a new generation.
// On failure the error is a DiagnosticError of kind ErrBuildFailed holding every diagnostic,
// and no graph is returned.
func (c *Compilation) Build(ctx context.Context) (*Result, error) {
	if len(c.options.Entries) == 0 {
		return nil, zerr.Wrap(domain.ErrNoEntries, c.root)
	}

	c.requests.NewGeneration()
	return requestgraph.Run(ctx, c.requests, AssetGraphRequest{c: c})
}

// Invalidate marks requests that observed any of the changed paths.
// Creations and deletions also invalidate the containing directories, which entry globs watch.
// It returns the number of requests invalidated.
func (c *Compilation) Invalidate(events ...ports.WatchEvent) int {
	paths := make([]string, 0, len(events))
	for _, e := range events {
		paths = append(paths, e.Path)
		if e.Operation == ports.OpUpdate {
			continue
		}
		for dir := filepath.Dir(e.Path); c.within(dir); dir = filepath.Dir(dir) {
			paths = append(paths, dir)
			if dir == c.root {
				break
			}
		}
	}
	return c.requests.Invalidate(paths...)
}

// InvalidateAll marks every request invalid.
func (c *Compilation) InvalidateAll() int {
	return c.requests.InvalidateAll()
}

// Requests exposes the request graph.
func (c *Compilation) Requests() *requestgraph.Graph {
	return c.requests
}

// Root returns the project root.
func (c *Compilation) Root() string {
	return c.root
}

func (c *Compilation) within(path string) bool {
	rel, err := filepath.Rel(c.root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (c *Compilation) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.root, path)
}
