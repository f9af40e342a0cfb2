package fs_test

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/fs"
	"go.trai.ch/strata/internal/core/domain"
)

func TestMemory_ReadWrite(t *testing.T) {
	mem := fs.NewMemory()
	path := filepath.FromSlash("/project/src/index.js")

	require.NoError(t, mem.WriteFile(path, []byte("export default 1")))

	got, err := mem.ReadString(path)
	require.NoError(t, err)
	assert.Equal(t, "export default 1", got)
	assert.True(t, mem.IsFile(path))
	assert.True(t, mem.IsDir(filepath.Dir(path)))
	assert.False(t, mem.IsFile(filepath.Dir(path)))

	entries, err := mem.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file must not survive the rename")
	assert.Equal(t, "index.js", entries[0].Name())
}

func TestMemory_ReadMissing(t *testing.T) {
	mem := fs.NewMemory()

	_, err := mem.ReadFile("/nope.js")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrFileReadFailed.Error())

	_, err = mem.Stat("/nope.js")
	require.Error(t, err)
	assert.True(t, errors.Is(err, iofs.ErrNotExist))
}

func TestMemory_Glob(t *testing.T) {
	mem := fs.NewMemory()
	root := filepath.FromSlash("/project")
	for _, p := range []string{"src/b.js", "src/a.js", "src/nested/c.js", "src/style.css"} {
		require.NoError(t, mem.WriteFile(filepath.Join(root, filepath.FromSlash(p)), []byte("x")))
	}

	matches, err := mem.Glob(root, "src/**/*.js")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "src", "a.js"),
		filepath.Join(root, "src", "b.js"),
		filepath.Join(root, "src", "nested", "c.js"),
	}, matches)

	_, err = mem.Glob(root, "src/[")
	assert.ErrorIs(t, err, domain.ErrInvalidGlob)
}

func TestMemory_RemoveIgnoresMissing(t *testing.T) {
	mem := fs.NewMemory()

	require.NoError(t, mem.Remove("/missing"))
	require.NoError(t, mem.WriteFile("/dir/file", []byte("x")))
	require.NoError(t, mem.RemoveAll("/dir"))
	assert.False(t, mem.IsDir("/dir"))
}

func TestOS_CanonicalizeResolvesSymlinks(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	require.NoError(t, os.Mkdir(real, 0o750))
	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	osfs := fs.NewOS()
	got, err := osfs.Canonicalize(link)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(real)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Memoized: removing the link does not change the answer.
	require.NoError(t, os.Remove(link))
	again, err := osfs.Canonicalize(link)
	require.NoError(t, err)
	assert.Equal(t, want, again)
}

func TestOS_WriteFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "out.txt")

	osfs := fs.NewOS()
	require.NoError(t, osfs.WriteFile(path, []byte("hello")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
