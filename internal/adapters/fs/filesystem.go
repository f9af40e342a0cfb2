// Package fs implements ports.FileSystem on top of afero.
package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FileSystem = (*FileSystem)(nil)

// FileSystem implements ports.FileSystem over an afero.Fs.
// The OS variant resolves symlinks when canonicalizing; the memory variant only cleans paths.
type FileSystem struct {
	fs         afero.Fs
	followLink bool
	canonical  sync.Map // map[string]string
}

// NewOS returns a FileSystem backed by the real operating system.
func NewOS() *FileSystem {
	return &FileSystem{fs: afero.NewOsFs(), followLink: true}
}

// NewMemory returns an empty in-memory FileSystem.
func NewMemory() *FileSystem {
	return &FileSystem{fs: afero.NewMemMapFs()}
}

// NewFromAfero wraps an existing afero.Fs.
func NewFromAfero(fs afero.Fs) *FileSystem {
	_, isOS := fs.(*afero.OsFs)
	return &FileSystem{fs: fs, followLink: isOS}
}

// Afero exposes the underlying afero.Fs.
func (f *FileSystem) Afero() afero.Fs {
	return f.fs
}

// ReadFile returns the content of path.
func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", path)
	}
	return data, nil
}

// ReadString returns the content of path as a string.
func (f *FileSystem) ReadString(path string) (string, error) {
	data, err := f.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadDir returns the entries of a directory sorted by name.
func (f *FileSystem) ReadDir(path string) ([]os.FileInfo, error) {
	entries, err := afero.ReadDir(f.fs, path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", path)
	}
	return entries, nil
}

// Stat returns file information for path.
// The error wraps fs.ErrNotExist for missing paths so callers can tell absence from failure.
func (f *FileSystem) Stat(path string) (os.FileInfo, error) {
	info, err := f.fs.Stat(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
	}
	return info, nil
}

// IsFile reports whether path exists and is a regular file.
func (f *FileSystem) IsFile(path string) bool {
	info, err := f.fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path exists and is a directory.
func (f *FileSystem) IsDir(path string) bool {
	info, err := f.fs.Stat(path)
	return err == nil && info.IsDir()
}

// Canonicalize returns the absolute, symlink-free form of path.
func (f *FileSystem) Canonicalize(path string) (string, error) {
	if cached, ok := f.canonical.Load(path); ok {
		return cached.(string), nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrCanonicalizeFailed.Error()), "path", path)
	}

	if f.followLink {
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrCanonicalizeFailed.Error()), "path", path)
		}
		abs = resolved
	}

	f.canonical.Store(path, abs)
	return abs, nil
}

// Glob returns the paths under root matching the doublestar pattern, sorted.
func (f *FileSystem) Glob(root, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, zerr.Wrap(domain.ErrInvalidGlob, pattern)
	}

	fsys := afero.NewIOFS(afero.NewBasePathFs(f.fs, root))
	matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidGlob, err.Error()), "pattern", pattern)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(m)))
	}
	slices.Sort(paths)
	return paths, nil
}

// CreateDir creates path and any missing parents.
func (f *FileSystem) CreateDir(path string) error {
	if err := f.fs.MkdirAll(path, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDirCreateFailed.Error()), "path", path)
	}
	return nil
}

// WriteFile writes data to path through a temporary file and a rename,
// so concurrent readers never observe a partial write.
func (f *FileSystem) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := f.CreateDir(dir); err != nil {
		return err
	}

	tmp, err := afero.TempFile(f.fs, dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = f.fs.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path)
	}
	if err := tmp.Close(); err != nil {
		_ = f.fs.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path)
	}

	if err := f.fs.Rename(tmpName, path); err != nil {
		_ = f.fs.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path)
	}
	return nil
}

// Remove deletes path. A missing path is not an error.
func (f *FileSystem) Remove(path string) error {
	if err := f.fs.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path)
	}
	return nil
}

// RemoveAll deletes path and everything below it.
func (f *FileSystem) RemoveAll(path string) error {
	if err := f.fs.RemoveAll(path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path)
	}
	return nil
}
