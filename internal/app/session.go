package app

import (
	"context"
	"errors"
	"path/filepath"
	"slices"

	"go.trai.ch/strata/internal/adapters/cache" //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/rpc"   //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/build"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/compilation"
	"go.trai.ch/strata/internal/engine/pipeline"
	"go.trai.ch/zerr"
)

// session holds everything opened for one project configuration.
// Watch mode replaces the session when a configuration file changes.
type session struct {
	root        string
	options     domain.BuildOptions
	configFiles []string
	stats       *cache.Recorder
	cache       ports.Cache
	pool        *rpc.Pool
	compilation *compilation.Compilation
}

// jsonLogger is implemented by loggers that can switch to JSON records.
type jsonLogger interface {
	SetJSON(enable bool)
}

func (a *App) open(ctx context.Context, opts RunOptions) (*session, error) {
	root, err := projectRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	options, err := a.Options.Load(ctx, root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	applyOverrides(&options, opts)
	if l, ok := a.Logger.(jsonLogger); ok {
		l.SetJSON(options.LogFormat == "json")
	}

	config, files, err := a.PluginConfig.Load(ctx, root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load plugin configuration")
	}

	stats := cache.NewRecorder()
	c, err := a.Caches.Open(root, options.Cache, stats)
	if err != nil {
		return nil, err
	}

	pool, loader, err := a.Connector.Connect(ctx, options.Workers)
	if err != nil {
		_ = c.Close()
		return nil, zerr.Wrap(err, "failed to start plugin workers")
	}

	var tracer ports.Tracer
	if a.Telemetry != nil {
		tracer = a.Telemetry.Tracer()
	}

	return &session{
		root:        root,
		options:     options,
		configFiles: configFiles(root, files),
		stats:       stats,
		cache:       c,
		pool:        pool,
		compilation: compilation.New(compilation.Config{
			Options:    options,
			FileSystem: a.FileSystem,
			Cache:      c,
			Stats:      stats,
			Tracer:     tracer,
			Pipelines:  pipeline.New(config, loader),
			Version:    build.Version,
		}),
	}, nil
}

func (a *App) close(s *session) {
	if err := errors.Join(s.pool.Close(), s.cache.Close()); err != nil {
		a.Logger.Warn(err.Error())
	}
}

func applyOverrides(options *domain.BuildOptions, opts RunOptions) {
	options.ProjectRoot = filepath.Clean(options.ProjectRoot)
	if len(opts.Entries) > 0 {
		options.Entries = opts.Entries
	}
	if opts.Mode != "" {
		options.Mode = opts.Mode
	}
	if opts.NoCache {
		options.Cache.Disabled = true
	}
	if opts.LogFormat != "" {
		options.LogFormat = opts.LogFormat
	}
}

// configFiles lists the files whose change reopens the project: the ones the plugin config
// was read from, plus every candidate config name under the root so a config created later counts too.
func configFiles(root string, loaded []string) []string {
	files := slices.Clone(loaded)
	for _, name := range []string{domain.OptionsFileName, domain.PluginConfigFileName, domain.PluginConfigYAMLFileName} {
		if path := filepath.Join(root, name); !slices.Contains(files, path) {
			files = append(files, path)
		}
	}
	return files
}
