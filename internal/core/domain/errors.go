package domain

import "go.trai.ch/zerr"

var (
	// ErrNoEntries is returned when a build is started without any entry specifiers.
	ErrNoEntries = zerr.New("no entries specified")

	// ErrEntryNotFound is returned when an entry specifier does not match any file.
	ErrEntryNotFound = zerr.New("entry not found")

	// ErrEntrySourceMissing is returned when a directory entry has no source field in its package.json.
	ErrEntrySourceMissing = zerr.New("directory entry has no source field in package.json")

	// ErrUnknownTarget is returned when an entry asks for a target that is not configured.
	ErrUnknownTarget = zerr.New("unknown target")

	// ErrResolutionFailed is returned when a required dependency cannot be resolved by any resolver.
	ErrResolutionFailed = zerr.New("failed to resolve dependency")

	// ErrTransformFailed is returned when a transformer plugin fails on an asset.
	ErrTransformFailed = zerr.New("transform failed")

	// ErrBuildFailed is returned when a build finishes with error diagnostics.
	ErrBuildFailed = zerr.New("build failed")

	// ErrDependencyAlreadyResolved is returned when a dependency node is linked to a second asset.
	ErrDependencyAlreadyResolved = zerr.New("dependency already resolved to a different asset")

	// ErrNodeNotFound is returned when a graph node index or key does not exist.
	ErrNodeNotFound = zerr.New("graph node not found")

	// ErrNodeKindMismatch is returned when a graph operation is applied to the wrong node kind.
	ErrNodeKindMismatch = zerr.New("graph node kind mismatch")

	// ErrRequestFailed is returned when a request definition fails.
	ErrRequestFailed = zerr.New("request failed")

	// ErrRequestResultType is returned when a stored request result has an unexpected type.
	ErrRequestResultType = zerr.New("request result has unexpected type")

	// ErrCacheOpenFailed is returned when the cache database cannot be opened.
	ErrCacheOpenFailed = zerr.New("failed to open cache")

	// ErrCacheReadFailed is returned when the cache backend fails to read a value.
	ErrCacheReadFailed = zerr.New("failed to read cache entry")

	// ErrCacheWriteFailed is returned when the cache backend fails to store a value.
	ErrCacheWriteFailed = zerr.New("failed to write cache entry")

	// ErrCacheCorrupt is returned when a stored cache value cannot be decoded.
	ErrCacheCorrupt = zerr.New("cache entry is corrupt")

	// ErrCacheEncodeFailed is returned when a value cannot be encoded for the cache.
	ErrCacheEncodeFailed = zerr.New("failed to encode cache value")

	// ErrBlobDirCreateFailed is returned when the blob directory cannot be created.
	ErrBlobDirCreateFailed = zerr.New("failed to create blob directory")

	// ErrUnknownCompression is returned when a cache compression name or tag is not recognized.
	ErrUnknownCompression = zerr.New("unknown cache compression")

	// ErrFileReadFailed is returned when a file cannot be read.
	ErrFileReadFailed = zerr.New("failed to read file")

	// ErrFileWriteFailed is returned when a file cannot be written.
	ErrFileWriteFailed = zerr.New("failed to write file")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrCanonicalizeFailed is returned when a path cannot be canonicalized.
	ErrCanonicalizeFailed = zerr.New("failed to canonicalize path")

	// ErrDirCreateFailed is returned when a directory cannot be created.
	ErrDirCreateFailed = zerr.New("failed to create directory")

	// ErrInvalidGlob is returned when a glob pattern is malformed.
	ErrInvalidGlob = zerr.New("invalid glob pattern")

	// ErrConfigReadFailed is returned when a config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when a config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigExtendsCycle is returned when a plugin config extends itself.
	ErrConfigExtendsCycle = zerr.New("plugin config extends chain contains a cycle")

	// ErrConfigExtendsNotFound is returned when an extended plugin config cannot be located.
	ErrConfigExtendsNotFound = zerr.New("extended plugin config not found")

	// ErrInvalidOptions is returned when runtime options fail validation.
	ErrInvalidOptions = zerr.New("invalid options")

	// ErrModuleNotFound is returned when the package manager cannot locate a module.
	ErrModuleNotFound = zerr.New("module not found")

	// ErrPackageJSONInvalid is returned when a package.json cannot be decoded.
	ErrPackageJSONInvalid = zerr.New("invalid package.json")

	// ErrPluginNotFound is returned when a configured plugin name has no implementation.
	ErrPluginNotFound = zerr.New("plugin not found")

	// ErrPluginNotLoaded is returned when a worker is asked to run a plugin it has not loaded.
	ErrPluginNotLoaded = zerr.New("plugin not loaded on worker")

	// ErrPluginLoadFailed is returned when a plugin cannot be loaded.
	ErrPluginLoadFailed = zerr.New("failed to load plugin")

	// ErrNoResolvers is returned when the plugin config declares no resolvers.
	ErrNoResolvers = zerr.New("no resolvers configured")

	// ErrWorkerPoolEmpty is returned when a worker pool has no workers.
	ErrWorkerPoolEmpty = zerr.New("worker pool has no workers")

	// ErrWorkerCallFailed is returned when a call to a worker fails at the transport level.
	ErrWorkerCallFailed = zerr.New("worker call failed")

	// ErrUnknownWorkerMethod is returned when a worker receives a method it does not serve.
	ErrUnknownWorkerMethod = zerr.New("unknown worker method")

	// ErrNoCommand is returned when exec is called without a command.
	ErrNoCommand = zerr.New("no command specified")

	// ErrCommandFailed is returned when a passthrough command cannot be started.
	ErrCommandFailed = zerr.New("command failed")

	// ErrWatcherFailed is returned when the file watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to start file watcher")
)
