package requestgraph

import (
	"time"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

// racyWindow is how recent a modification time must be for a stamp check to rehash content.
// Writes inside the file system's timestamp granularity do not always change the mtime.
const racyWindow = 2 * time.Second

// Stamp is what a request observed about a file.
type Stamp struct {
	Exists  bool
	Size    int64
	ModTime time.Time
	// Hash is the content hash, set when the request read the file.
	Hash string
}

func (s Stamp) sameMeta(o Stamp) bool {
	return s.Exists == o.Exists && s.Size == o.Size && s.ModTime.Equal(o.ModTime)
}

// RunContext is handed to a running request. Reads through it become invalidation inputs.
// It is safe for concurrent use by goroutines the request starts.
type RunContext struct {
	g   *Graph
	idx int
	key string
}

func (rc *RunContext) scope() (*Graph, int) {
	return rc.g, rc.idx
}

// Key returns the key of the running request.
func (rc *RunContext) Key() string {
	return rc.key
}

// FileSystem returns the graph's file system for reads that should not be tracked.
func (rc *RunContext) FileSystem() ports.FileSystem {
	return rc.g.fs
}

// ReadFile reads path and records it, with its content hash, as an input of the request.
// A missing file is recorded too, so creating it later invalidates the request.
func (rc *RunContext) ReadFile(path string) ([]byte, error) {
	data, err := rc.g.fs.ReadFile(path)
	stamp := rc.g.stat(path)
	if err == nil {
		stamp.Hash = domain.HashBytes(data)
	}
	rc.track(path, stamp)
	return data, err
}

// InvalidateOnFileChange records paths as inputs without reading them.
func (rc *RunContext) InvalidateOnFileChange(paths ...string) {
	for _, path := range paths {
		rc.track(path, rc.g.stat(path))
	}
}

func (rc *RunContext) track(path string, stamp Stamp) {
	g := rc.g
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.nodes[rc.idx]
	file := g.fileNodeLocked(path)
	n.files[file] = struct{}{}
	g.nodes[file].dependents[rc.idx] = struct{}{}

	prev, seen := n.stamps[path]
	switch {
	case !seen:
		n.stamps[path] = stamp
	case !prev.sameMeta(stamp) || (prev.Hash != "" && stamp.Hash != "" && prev.Hash != stamp.Hash):
		// The file changed between two reads of the same run.
		n.dirty = true
	case prev.Hash == "":
		n.stamps[path] = stamp
	}
}

func (g *Graph) stat(path string) Stamp {
	info, err := g.fs.Stat(path)
	if err != nil {
		return Stamp{}
	}
	return Stamp{Exists: true, Size: info.Size(), ModTime: info.ModTime()}
}

// stampsChanged reports whether any recorded input differs from the file system now.
func (g *Graph) stampsChanged(stamps map[string]Stamp) bool {
	for path, want := range stamps {
		got := g.stat(path)
		if !got.sameMeta(want) {
			return true
		}
		if want.Hash == "" || !want.Exists || time.Since(got.ModTime) > racyWindow {
			continue
		}
		data, err := g.fs.ReadFile(path)
		if err != nil || domain.HashBytes(data) != want.Hash {
			return true
		}
	}
	return false
}
