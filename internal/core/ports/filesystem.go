package ports

import (
	"os"
)

// FileSystem is the capability interface every graph-building component reads through.
// Implementations must be safe for concurrent use.
//
//go:generate go run go.uber.org/mock/mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// ReadFile returns the content of path.
	ReadFile(path string) ([]byte, error)
	// ReadString returns the content of path as a string.
	ReadString(path string) (string, error)
	// ReadDir returns the entries of a directory sorted by name.
	ReadDir(path string) ([]os.FileInfo, error)
	// Stat returns file information for path.
	Stat(path string) (os.FileInfo, error)
	// IsFile reports whether path exists and is a regular file.
	IsFile(path string) bool
	// IsDir reports whether path exists and is a directory.
	IsDir(path string) bool
	// Canonicalize returns the absolute, symlink-free form of path.
	// Results are memoized in the implementation's path cache.
	Canonicalize(path string) (string, error)
	// Glob returns the paths under root matching the doublestar pattern, sorted.
	Glob(root, pattern string) ([]string, error)
	// CreateDir creates path and any missing parents.
	CreateDir(path string) error
	// WriteFile writes data to path, replacing any existing content.
	WriteFile(path string, data []byte) error
	// Remove deletes path. A missing path is not an error.
	Remove(path string) error
	// RemoveAll deletes path and everything below it.
	RemoveAll(path string) error
}
