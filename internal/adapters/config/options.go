// Package config loads strata.yaml runtime options and .stratarc plugin configuration.
package config

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// EnvPrefix prefixes environment overrides, e.g. STRATA_CACHE_COMPRESSION.
const EnvPrefix = "STRATA"

var _ ports.OptionsLoader = (*OptionsLoader)(nil)

// OptionsLoader implements ports.OptionsLoader with viper.
type OptionsLoader struct {
	fs ports.FileSystem
}

// NewOptionsLoader creates an OptionsLoader reading through fsys.
func NewOptionsLoader(fsys ports.FileSystem) *OptionsLoader {
	return &OptionsLoader{fs: fsys}
}

// Load reads strata.yaml from projectRoot if present, applies STRATA_*
// environment overrides and validates the result.
func (l *OptionsLoader) Load(ctx context.Context, projectRoot string) (domain.BuildOptions, error) {
	if err := ctx.Err(); err != nil {
		return domain.BuildOptions{}, err
	}

	v := viper.New()
	v.SetDefault("entries", []string{})
	v.SetDefault("mode", string(domain.ModeDevelopment))
	v.SetDefault("parallelism", runtime.NumCPU())
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.blob_threshold", domain.DefaultBlobThreshold)
	v.SetDefault("cache.compression", string(domain.CompressionZstd))
	v.SetDefault("cache.disabled", false)
	v.SetDefault("workers.count", runtime.NumCPU())
	v.SetDefault("workers.mode", string(domain.WorkersInProcess))
	v.SetDefault("workers.addrs", []string{})
	v.SetDefault("log.format", "pretty")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(projectRoot, domain.OptionsFileName)
	if l.fs.IsFile(path) {
		data, err := l.fs.ReadFile(path)
		if err != nil {
			return domain.BuildOptions{}, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return domain.BuildOptions{}, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "path", path)
		}
	}

	var file optionsFile
	if err := v.Unmarshal(&file); err != nil {
		return domain.BuildOptions{}, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "path", path)
	}

	return toBuildOptions(projectRoot, &file)
}

func toBuildOptions(projectRoot string, file *optionsFile) (domain.BuildOptions, error) {
	opts := domain.BuildOptions{
		ProjectRoot: projectRoot,
		Entries:     slices.Clone(file.Entries),
		Targets:     make(map[string]domain.TargetOptions, len(file.Targets)),
		Mode:        domain.BuildMode(file.Mode),
		Cache: domain.CacheOptions{
			Dir:           file.Cache.Dir,
			BlobThreshold: file.Cache.BlobThreshold,
			Compression:   domain.Compression(file.Cache.Compression),
			Disabled:      file.Cache.Disabled,
		},
		Workers: domain.WorkerOptions{
			Count: file.Workers.Count,
			Mode:  domain.WorkerMode(file.Workers.Mode),
			Addrs: slices.Clone(file.Workers.Addrs),
		},
		LogFormat:   file.Log.Format,
		Parallelism: file.Parallelism,
	}

	if err := validateOneOf("mode", string(opts.Mode),
		domain.ModeDevelopment, domain.ModeProduction); err != nil {
		return opts, err
	}
	if err := validateOneOf("cache.compression", string(opts.Cache.Compression),
		domain.CompressionZstd, domain.CompressionLZ4, domain.CompressionNone); err != nil {
		return opts, err
	}
	if err := validateOneOf("workers.mode", string(opts.Workers.Mode),
		domain.WorkersInProcess, domain.WorkersGRPC); err != nil {
		return opts, err
	}
	if err := validateOneOf("log.format", opts.LogFormat, "pretty", "json"); err != nil {
		return opts, err
	}
	if opts.Workers.Mode == domain.WorkersGRPC && len(opts.Workers.Addrs) == 0 {
		return opts, zerr.Wrap(domain.ErrInvalidOptions, "workers.addrs is required for grpc workers")
	}
	if opts.Workers.Count <= 0 {
		opts.Workers.Count = 1
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}

	for name, dto := range file.Targets {
		target := domain.TargetOptions{
			Context:      domain.EnvironmentContext(dto.Context),
			OutputFormat: domain.OutputFormat(dto.OutputFormat),
			DistDir:      dto.DistDir,
			Engines:      dto.Engines,
			SourceMap:    dto.SourceMap,
			IsLibrary:    dto.Library,
		}
		if target.Context == "" {
			target.Context = domain.ContextBrowser
		}
		if target.DistDir == "" {
			target.DistDir = filepath.Join(domain.DefaultDistDir, name)
		}
		if err := validateOneOf("targets."+name+".context", string(target.Context), domain.AllContexts()...); err != nil {
			return opts, err
		}
		if target.OutputFormat != "" {
			if err := validateOneOf("targets."+name+".output_format", string(target.OutputFormat),
				domain.FormatESModule, domain.FormatCommonJS, domain.FormatGlobal); err != nil {
				return opts, err
			}
		}
		opts.Targets[name] = target
	}

	return opts, nil
}

func validateOneOf[T ~string](field, value string, allowed ...T) error {
	for _, a := range allowed {
		if string(a) == value {
			return nil
		}
	}
	return zerr.With(zerr.Wrap(domain.ErrInvalidOptions, field), "value", value)
}
