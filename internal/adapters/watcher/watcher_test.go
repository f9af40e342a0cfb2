package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/watcher"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

func TestWatcher_Ignored(t *testing.T) {
	root := t.TempDir()
	w := watcher.NewWatcher(nil)
	require.NoError(t, w.Start(t.Context(), root, []string{"dist", "**/*.log"}))
	t.Cleanup(func() { _ = w.Stop() })

	tests := []struct {
		path string
		want bool
	}{
		{"src/index.js", false},
		{"dist/index.js", true},
		{"dist", true},
		{"node_modules/react/index.js", true},
		{".strata/cache/blobs/ab", true},
		{"src/debug.log", true},
		{"distribution/a.js", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.Ignored(filepath.Join(root, filepath.FromSlash(tt.path))), tt.path)
	}
}

func TestWatcher_InvalidIgnore(t *testing.T) {
	w := watcher.NewWatcher(nil)
	err := w.Start(t.Context(), t.TempDir(), []string{"[unclosed"})
	assert.ErrorIs(t, err, domain.ErrInvalidGlob)
}

func TestWatcher_EmitsEvents(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), domain.DirPerm))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dist"), domain.DirPerm))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	w := watcher.NewWatcher(nil)
	require.NoError(t, w.Start(ctx, root, []string{"dist"}))

	events := make(chan ports.WatchEvent, 16)
	go func() {
		for e := range w.Events() {
			events <- e
		}
		close(events)
	}()

	// Ignored output is written first so any leak would arrive before the source event.
	require.NoError(t, os.WriteFile(filepath.Join(root, "dist", "out.js"), []byte("x"), domain.FilePerm))
	target := filepath.Join(root, "src", "index.js")
	require.NoError(t, os.WriteFile(target, []byte("export {}"), domain.FilePerm))

	select {
	case e := <-events:
		assert.Equal(t, target, e.Path)
		assert.Equal(t, ports.OpCreate, e.Operation)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}

	cancel()
	for range events {
	}
}
