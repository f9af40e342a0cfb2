package cache

import (
	"path/filepath"

	"go.trai.ch/strata/internal/build"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

var _ ports.CacheOpener = (*Opener)(nil)

// Opener builds the cache a project is configured for.
type Opener struct {
	fs ports.FileSystem
}

// NewOpener returns an Opener writing through fsys.
func NewOpener(fsys ports.FileSystem) *Opener {
	return &Opener{fs: fsys}
}

// Open returns a persistent Store under the project's cache directory,
// or a Memory cache when caching is disabled.
func (o *Opener) Open(projectRoot string, opts domain.CacheOptions, stats ports.StatsRecorder) (ports.Cache, error) {
	if opts.Disabled {
		return NewMemory(stats), nil
	}

	dir := opts.Dir
	switch {
	case dir == "":
		dir = domain.DefaultCachePath(projectRoot)
	case !filepath.IsAbs(dir):
		dir = filepath.Join(projectRoot, dir)
	}

	return NewStore(o.fs, stats, Options{
		Dir:           dir,
		BlobThreshold: opts.BlobThreshold,
		Compression:   opts.Compression,
		Version:       build.Version,
	})
}
