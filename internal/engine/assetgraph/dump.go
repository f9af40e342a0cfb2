package assetgraph

import (
	"cmp"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
)

// Dump writes an indented textual form of the graph reachable from the root.
// Children are ordered by a stable key so the output does not depend on discovery order.
// Paths are printed relative to base. An asset reached a second time is printed once more
// with a trailing "(seen)" marker and not expanded, which also cuts import cycles.
func (g *Graph) Dump(w io.Writer, base string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	d := dumper{g: g, base: base, w: w, seen: make(map[NodeIndex]bool)}
	d.visit(g.RootNode(), 0)
	return d.err
}

type dumper struct {
	g    *Graph
	base string
	w    io.Writer
	seen map[NodeIndex]bool
	err  error
}

func (d *dumper) printf(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, strings.Repeat("  ", depth)+format+"\n", args...)
}

func (d *dumper) rel(path string) string {
	if d.base == "" {
		return filepath.ToSlash(path)
	}
	if r, err := filepath.Rel(d.base, path); err == nil {
		return filepath.ToSlash(r)
	}
	return filepath.ToSlash(path)
}

func (d *dumper) visit(idx NodeIndex, depth int) {
	n := d.g.nodes[idx]
	switch n.Kind {
	case KindRoot:
		d.printf(depth, "root")
	case KindDependency:
		dep := n.Dependency
		flags := []string{string(dep.Priority)}
		if dep.IsEntry {
			flags = append(flags, "entry")
		}
		if dep.IsOptional {
			flags = append(flags, "optional")
		}
		if dep.Target != nil {
			flags = append(flags, "target="+dep.Target.Name)
		}
		state := n.State.String()
		if n.Excluded {
			state += " excluded"
		}
		d.printf(depth, "dep %q [%s] %s", dep.Specifier, strings.Join(flags, " "), state)
	case KindAsset:
		a := n.Asset
		if d.seen[idx] {
			d.printf(depth, "asset %s (%s) (seen)", d.rel(a.FilePath), a.FileType)
			return
		}
		d.seen[idx] = true
		d.printf(depth, "asset %s (%s)", d.rel(a.FilePath), a.FileType)
	}

	for _, child := range d.sortedChildren(idx) {
		d.visit(child, depth+1)
	}
}

// sortedChildren orders dependencies by specifier then identity, and assets by path then identity.
func (d *dumper) sortedChildren(idx NodeIndex) []NodeIndex {
	ids := d.g.children[idx]
	out := make([]NodeIndex, 0, len(ids))
	for _, e := range ids {
		out = append(out, d.g.edges[e].To)
	}
	slices.SortFunc(out, func(a, b NodeIndex) int {
		return cmp.Compare(d.sortKey(a), d.sortKey(b))
	})
	return out
}

func (d *dumper) sortKey(idx NodeIndex) string {
	n := d.g.nodes[idx]
	switch n.Kind {
	case KindDependency:
		return "0" + n.Dependency.Specifier + "\x00" + string(n.Dependency.ID())
	case KindAsset:
		return "1" + filepath.ToSlash(n.Asset.FilePath) + "\x00" + string(n.Asset.ID)
	default:
		return ""
	}
}
