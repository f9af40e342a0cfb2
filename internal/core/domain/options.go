package domain

import "slices"

// BuildMode selects development or production defaults.
type BuildMode string

const (
	// ModeDevelopment is the default mode.
	ModeDevelopment BuildMode = "development"
	// ModeProduction enables optimization in target environments.
	ModeProduction BuildMode = "production"
)

// Compression names a blob compression algorithm.
type Compression string

const (
	// CompressionZstd compresses blobs with zstd.
	CompressionZstd Compression = "zstd"
	// CompressionLZ4 compresses blobs with LZ4 block mode.
	CompressionLZ4 Compression = "lz4"
	// CompressionNone stores blobs as-is.
	CompressionNone Compression = "none"
)

// WorkerMode selects where plugins run.
type WorkerMode string

const (
	// WorkersInProcess runs plugins inside the build process.
	WorkersInProcess WorkerMode = "inprocess"
	// WorkersGRPC dispatches plugin calls to external worker processes over gRPC.
	WorkersGRPC WorkerMode = "grpc"
)

// TargetOptions describe a configured target.
type TargetOptions struct {
	Context      EnvironmentContext
	OutputFormat OutputFormat
	DistDir      string
	Engines      map[string]string
	SourceMap    bool
	IsLibrary    bool
}

// CacheOptions configure the persistent cache.
type CacheOptions struct {
	Dir           string
	BlobThreshold int
	Compression   Compression
	Disabled      bool
}

// WorkerOptions configure the plugin worker pool.
type WorkerOptions struct {
	Count int
	Mode  WorkerMode
	Addrs []string
}

// BuildOptions are the resolved runtime options of a build.
type BuildOptions struct {
	ProjectRoot string
	Entries     []string
	Targets     map[string]TargetOptions
	Mode        BuildMode
	Cache       CacheOptions
	Workers     WorkerOptions
	LogFormat   string
	Parallelism int
}

// TargetNames returns the configured target names in sorted order.
func (o *BuildOptions) TargetNames() []string {
	names := make([]string, 0, len(o.Targets))
	for name := range o.Targets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
