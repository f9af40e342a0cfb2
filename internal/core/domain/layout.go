package domain

import "path/filepath"

const (
	// StrataDirName is the name of the internal workspace directory.
	StrataDirName = ".strata"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// BlobDirName is the name of the large-value blob directory inside the cache.
	BlobDirName = "blobs"

	// CacheDBFileName is the name of the small-value store database.
	CacheDBFileName = "cache.db"

	// StatsFileName is the name of the prometheus text file holding cache statistics.
	StatsFileName = "cache-stats.prom"

	// OptionsFileName is the name of the runtime options file.
	OptionsFileName = "strata.yaml"

	// PluginConfigFileName is the name of the plugin configuration file.
	PluginConfigFileName = ".stratarc"

	// PluginConfigYAMLFileName is the YAML flavour of the plugin configuration file.
	PluginConfigYAMLFileName = ".stratarc.yaml"

	// DefaultPluginConfigName is the name under which the built-in plugin config can be extended.
	DefaultPluginConfigName = "@strata/config-default"

	// PackageJSONFileName is the name of a package manifest.
	PackageJSONFileName = "package.json"

	// NodeModulesDirName is the name of the installed packages directory.
	NodeModulesDirName = "node_modules"

	// DefaultDistDir is the output directory of the default target.
	DefaultDistDir = "dist"

	// DefaultBlobThreshold is the value size in bytes from which cache values spill to the blob area.
	DefaultBlobThreshold = 64 * 1024

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultStrataPath returns the root directory for strata metadata under root.
func DefaultStrataPath(root string) string {
	return filepath.Join(root, StrataDirName)
}

// DefaultCachePath returns the default cache directory under root.
// It joins .strata and cache.
func DefaultCachePath(root string) string {
	return filepath.Join(root, StrataDirName, CacheDirName)
}

// BlobPath returns the blob directory inside a cache directory.
func BlobPath(cacheDir string) string {
	return filepath.Join(cacheDir, BlobDirName)
}

// StatsPath returns the path of the cache statistics file under root.
// It joins .strata and cache-stats.prom.
func StatsPath(root string) string {
	return filepath.Join(root, StrataDirName, StatsFileName)
}
