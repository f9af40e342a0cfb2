// Package app implements the application layer for strata.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/strata/internal/adapters/plugins"   //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/rpc"       //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/assetgraph"
	"go.trai.ch/strata/internal/engine/compilation"
	"go.trai.ch/zerr"
)

// Deps are the collaborators of an App.
type Deps struct {
	FileSystem   ports.FileSystem
	Options      ports.OptionsLoader
	PluginConfig ports.PluginConfigLoader
	Caches       ports.CacheOpener
	Plugins      *plugins.Set
	Connector    *rpc.Connector
	Logger       ports.Logger
	Sink         ports.DiagnosticSink
	Watcher      ports.Watcher
	Telemetry    *telemetry.Provider
	Runner       ports.CommandRunner
}

// App represents the main application logic.
type App struct {
	Deps

	out            io.Writer
	debounceWindow time.Duration
}

// New creates a new App instance.
func New(deps Deps) *App {
	return &App{Deps: deps, out: os.Stdout}
}

// WithOutput redirects graph dumps, which go to stdout by default.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// WithDebounceWindow overrides how long watch mode waits for file events to settle.
func (a *App) WithDebounceWindow(d time.Duration) *App {
	a.debounceWindow = d
	return a
}

// RunOptions are the command line overrides of a build.
type RunOptions struct {
	// Root is the project root. Empty means the working directory.
	Root string
	// Entries replace the configured entries when set.
	Entries []string
	// Mode replaces the configured build mode when set.
	Mode domain.BuildMode
	// NoCache builds against an in-memory cache.
	NoCache bool
	// DumpGraph prints the asset graph after a successful build.
	DumpGraph bool
	// Timings logs the time spent per request kind.
	Timings bool
	// LogFormat is "pretty" or "json". Empty keeps the configured format.
	LogFormat string
}

// Build runs one build and reports its diagnostics.
// A build with error diagnostics returns an error that matches domain.ErrBuildFailed.
func (a *App) Build(ctx context.Context, opts RunOptions) error {
	s, err := a.open(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close(s)

	return a.build(ctx, s, opts)
}

// build runs the session's compilation once and reports the outcome.
func (a *App) build(ctx context.Context, s *session, opts RunOptions) error {
	start := time.Now()
	before := s.stats.Snapshot()
	if a.Telemetry != nil {
		a.Telemetry.Timings().Reset()
	}

	res, err := s.compilation.Build(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	a.exportStats(s)

	if err != nil {
		var de *domain.DiagnosticError
		if !errors.As(err, &de) {
			return err
		}
		a.Sink.Report(ctx, de.Diagnostics)
		return err
	}

	if len(res.Diagnostics) > 0 {
		a.Sink.Report(ctx, res.Diagnostics)
	}
	if opts.DumpGraph {
		if err := res.Graph.Dump(a.out, s.root); err != nil {
			return zerr.Wrap(err, "failed to write graph")
		}
	}

	counts := res.Graph.Counts()
	a.Logger.Info(fmt.Sprintf("built %d assets from %d dependencies in %s (%s)",
		counts[assetgraph.KindAsset],
		counts[assetgraph.KindDependency],
		time.Since(start).Round(time.Millisecond),
		s.stats.Snapshot().Sub(before),
	))
	if opts.Timings {
		a.logTimings()
	}
	return nil
}

func (a *App) logTimings() {
	if a.Telemetry == nil {
		return
	}
	for _, k := range a.Telemetry.Timings().Snapshot() {
		a.Logger.Info(fmt.Sprintf("%-12s %5d requests %10s", k.Kind, k.Count, k.Total.Round(time.Microsecond)))
	}
}

// exportStats writes the cumulative cache counters next to the cache.
// A failed export does not fail the build.
func (a *App) exportStats(s *session) {
	path := domain.StatsPath(s.root)
	if err := a.FileSystem.CreateDir(filepath.Dir(path)); err != nil {
		a.Logger.Warn(fmt.Sprintf("cannot export cache stats: %v", err))
		return
	}
	if err := s.stats.WriteTextfile(path); err != nil {
		a.Logger.Warn(fmt.Sprintf("cannot export cache stats: %v", err))
	}
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Root string
	// Dist also removes the output directory of every target.
	Dist bool
}

// Clean removes the cache and, optionally, build outputs.
func (a *App) Clean(ctx context.Context, opts CleanOptions) error {
	root, err := projectRoot(opts.Root)
	if err != nil {
		return err
	}
	options, err := a.Options.Load(ctx, root)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	var errs error
	remove := func(path, name string) {
		a.Logger.Info(fmt.Sprintf("removing %s...", name))
		if err := a.FileSystem.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.Logger.Info(fmt.Sprintf("removed %s", name))
	}

	remove(cacheDir(root, options.Cache), "cache")
	remove(domain.StatsPath(root), "cache stats")

	if opts.Dist {
		c := compilation.New(compilation.Config{Options: options, FileSystem: a.FileSystem})
		for _, dir := range c.DistDirs() {
			remove(dir, "dist "+relative(root, dir))
		}
	}
	return errs
}

func cacheDir(root string, opts domain.CacheOptions) string {
	switch {
	case opts.Dir == "":
		return domain.DefaultCachePath(root)
	case filepath.IsAbs(opts.Dir):
		return opts.Dir
	default:
		return filepath.Join(root, opts.Dir)
	}
}

func projectRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve project root"), "root", root)
	}
	return abs, nil
}

func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
