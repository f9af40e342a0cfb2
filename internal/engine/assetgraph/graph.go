// Package assetgraph holds the arena graph of entries, dependencies and assets built by a compilation.
package assetgraph

import (
	"iter"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// NodeIndex is the stable position of a node in the arena.
type NodeIndex int

// NodeKind is the type of a graph node.
type NodeKind uint8

const (
	// KindRoot is the synthetic root. Entry dependencies are its children.
	KindRoot NodeKind = iota
	// KindDependency is an edge request from an asset or the root to a specifier.
	KindDependency
	// KindAsset is a transformed source unit.
	KindAsset
)

// String returns the name of the kind.
func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindDependency:
		return "dependency"
	default:
		return "asset"
	}
}

// DependencyState is the resolution progress of a dependency node.
type DependencyState uint8

const (
	// StateNew is a dependency that has not been looked at.
	StateNew DependencyState = iota
	// StateResolving is a dependency whose resolution is in progress.
	StateResolving
	// StateResolved is a dependency linked to exactly one asset.
	StateResolved
	// StateDeferred is a dependency intentionally left without an asset.
	StateDeferred
)

// String returns the name of the state.
func (s DependencyState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	default:
		return "deferred"
	}
}

// EdgeKind is the type of a graph edge.
type EdgeKind uint8

const (
	// EdgeDependency connects the root or an asset to one of its dependencies.
	EdgeDependency EdgeKind = iota
	// EdgeResolution connects a dependency to the asset it resolved to.
	EdgeResolution
	// EdgeDiscovered connects an asset to a side output no dependency points at.
	EdgeDiscovered
)

// Edge is a directed, typed connection between two nodes.
type Edge struct {
	From NodeIndex
	To   NodeIndex
	Kind EdgeKind
}

// Node is one arena slot. Exactly one of Dependency or Asset is set for non-root nodes.
type Node struct {
	Kind       NodeKind
	Dependency *domain.Dependency
	Asset      *domain.Asset
	State      DependencyState
	// Excluded marks a deferred dependency that a resolver excluded on purpose, e.g. a builtin.
	Excluded bool
}

// Graph is an append-only arena of nodes with typed edges.
// Structural writes take the lock; readers may traverse concurrently once the build is done.
type Graph struct {
	mu           sync.RWMutex
	nodes        []Node
	edges        []Edge
	children     map[NodeIndex][]int
	parents      map[NodeIndex][]int
	assets       map[domain.AssetID]NodeIndex
	dependencies map[domain.DependencyID]NodeIndex
}

// New returns a graph holding only the root node.
func New() *Graph {
	return &Graph{
		nodes:        []Node{{Kind: KindRoot}},
		children:     make(map[NodeIndex][]int),
		parents:      make(map[NodeIndex][]int),
		assets:       make(map[domain.AssetID]NodeIndex),
		dependencies: make(map[domain.DependencyID]NodeIndex),
	}
}

// RootNode returns the index of the root.
func (g *Graph) RootNode() NodeIndex {
	return 0
}

// AddEntryDependencies attaches deps to the root sorted by dependency identity,
// so the root's children are ordered the same way whatever order entries were discovered in.
func (g *Graph) AddEntryDependencies(deps []*domain.Dependency) []NodeIndex {
	sorted := slices.Clone(deps)
	slices.SortStableFunc(sorted, func(a, b *domain.Dependency) int {
		return strings.Compare(string(a.ID()), string(b.ID()))
	})

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]NodeIndex, 0, len(sorted))
	for _, dep := range sorted {
		out = append(out, g.addDependencyLocked(g.RootNode(), dep))
	}
	return out
}

// AddDependency attaches dep below the asset node parent.
// A dependency with the same identity is only added once.
func (g *Graph) AddDependency(parent NodeIndex, dep *domain.Dependency) (NodeIndex, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkKind(parent, KindAsset); err != nil {
		return 0, err
	}
	return g.addDependencyLocked(parent, dep), nil
}

func (g *Graph) addDependencyLocked(parent NodeIndex, dep *domain.Dependency) NodeIndex {
	id := dep.ID()
	if idx, ok := g.dependencies[id]; ok {
		g.addEdgeLocked(parent, idx, EdgeDependency)
		return idx
	}

	idx := g.appendLocked(Node{Kind: KindDependency, Dependency: dep, State: StateNew})
	g.dependencies[id] = idx
	g.addEdgeLocked(parent, idx, EdgeDependency)
	return idx
}

// MarkResolving moves a new dependency into the resolving state.
func (g *Graph) MarkResolving(dep NodeIndex) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkKind(dep, KindDependency); err != nil {
		return err
	}
	if g.nodes[dep].State == StateNew {
		g.nodes[dep].State = StateResolving
	}
	return nil
}

// ResolveDependency links dep to the asset with asset's identity, adding the asset node when
// it is not in the graph yet. created reports whether a new asset node was added.
// Linking a dependency that already points at a different asset fails.
func (g *Graph) ResolveDependency(dep NodeIndex, asset *domain.Asset) (idx NodeIndex, created bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkKind(dep, KindDependency); err != nil {
		return 0, false, err
	}

	idx, exists := g.assets[asset.ID]
	if current, ok := g.resolvedAssetLocked(dep); ok {
		if exists && current == idx {
			return idx, false, nil
		}
		return 0, false, zerr.With(zerr.Wrap(domain.ErrDependencyAlreadyResolved, string(asset.ID)),
			"specifier", g.nodes[dep].Dependency.Specifier)
	}

	if !exists {
		idx = g.appendLocked(Node{Kind: KindAsset, Asset: asset})
		g.assets[asset.ID] = idx
	}
	g.addEdgeLocked(dep, idx, EdgeResolution)
	g.nodes[dep].State = StateResolved
	g.nodes[dep].Excluded = false
	return idx, !exists, nil
}

// UpdateAsset replaces the asset stored at idx, e.g. with its transformed form.
// The identity must not change.
func (g *Graph) UpdateAsset(idx NodeIndex, asset *domain.Asset) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkKind(idx, KindAsset); err != nil {
		return err
	}
	if current := g.nodes[idx].Asset; current.ID != asset.ID {
		err := zerr.With(zerr.Wrap(domain.ErrNodeKindMismatch, "asset identity changed"), "from", string(current.ID))
		return zerr.With(err, "to", string(asset.ID))
	}
	g.nodes[idx].Asset = asset
	return nil
}

// DeferDependency leaves dep without an asset. excluded records that a resolver excluded it.
func (g *Graph) DeferDependency(dep NodeIndex, excluded bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkKind(dep, KindDependency); err != nil {
		return err
	}
	if _, ok := g.resolvedAssetLocked(dep); ok {
		return zerr.With(zerr.Wrap(domain.ErrDependencyAlreadyResolved, "cannot defer"),
			"specifier", g.nodes[dep].Dependency.Specifier)
	}
	g.nodes[dep].State = StateDeferred
	g.nodes[dep].Excluded = excluded
	return nil
}

// AddDiscoveredAsset links a side output directly under the asset that produced it.
func (g *Graph) AddDiscoveredAsset(parent NodeIndex, asset *domain.Asset) (NodeIndex, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkKind(parent, KindAsset); err != nil {
		return 0, err
	}

	idx, exists := g.assets[asset.ID]
	if !exists {
		idx = g.appendLocked(Node{Kind: KindAsset, Asset: asset})
		g.assets[asset.ID] = idx
	}
	g.addEdgeLocked(parent, idx, EdgeDiscovered)
	return idx, nil
}

// Node returns a copy of the node at idx.
func (g *Graph) Node(idx NodeIndex) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if idx < 0 || int(idx) >= len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[idx], true
}

// AssetNode returns the index of the asset with id.
func (g *Graph) AssetNode(id domain.AssetID) (NodeIndex, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.assets[id]
	return idx, ok
}

// DependencyNode returns the index of the dependency with id.
func (g *Graph) DependencyNode(id domain.DependencyID) (NodeIndex, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.dependencies[id]
	return idx, ok
}

// ResolvedAsset returns the asset node dep is linked to.
func (g *Graph) ResolvedAsset(dep NodeIndex) (NodeIndex, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolvedAssetLocked(dep)
}

func (g *Graph) resolvedAssetLocked(dep NodeIndex) (NodeIndex, bool) {
	for _, e := range g.children[dep] {
		if g.edges[e].Kind == EdgeResolution {
			return g.edges[e].To, true
		}
	}
	return 0, false
}

// Nodes yields every node in insertion order.
func (g *Graph) Nodes() iter.Seq2[NodeIndex, Node] {
	return func(yield func(NodeIndex, Node) bool) {
		g.mu.RLock()
		nodes := slices.Clone(g.nodes)
		g.mu.RUnlock()

		for i, n := range nodes {
			if !yield(NodeIndex(i), n) {
				return
			}
		}
	}
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.edges)
}

// Children returns the outgoing edges of idx in insertion order.
func (g *Graph) Children(idx NodeIndex) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgesLocked(g.children[idx])
}

// Parents returns the incoming edges of idx in insertion order.
func (g *Graph) Parents(idx NodeIndex) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgesLocked(g.parents[idx])
}

func (g *Graph) edgesLocked(ids []int) []Edge {
	out := make([]Edge, 0, len(ids))
	for _, e := range ids {
		out = append(out, g.edges[e])
	}
	return out
}

// Counts returns the number of nodes per kind.
func (g *Graph) Counts() map[NodeKind]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	counts := make(map[NodeKind]int, 3)
	for _, n := range g.nodes {
		counts[n.Kind]++
	}
	return counts
}

// Deferred returns the dependency nodes left in the deferred state, excluded ones included.
func (g *Graph) Deferred() []NodeIndex {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []NodeIndex
	for i, n := range g.nodes {
		if n.Kind == KindDependency && n.State == StateDeferred {
			out = append(out, NodeIndex(i))
		}
	}
	return out
}

func (g *Graph) appendLocked(n Node) NodeIndex {
	g.nodes = append(g.nodes, n)
	return NodeIndex(len(g.nodes) - 1)
}

// addEdgeLocked adds from→to unless an edge of the same kind already exists.
func (g *Graph) addEdgeLocked(from, to NodeIndex, kind EdgeKind) {
	for _, e := range g.children[from] {
		if g.edges[e].To == to && g.edges[e].Kind == kind {
			return
		}
	}
	g.edges = append(g.edges, Edge{From: from, To: to, Kind: kind})
	id := len(g.edges) - 1
	g.children[from] = append(g.children[from], id)
	g.parents[to] = append(g.parents[to], id)
}

func (g *Graph) checkKind(idx NodeIndex, want NodeKind) error {
	if idx < 0 || int(idx) >= len(g.nodes) {
		return zerr.Wrap(domain.ErrNodeNotFound, strconv.Itoa(int(idx)))
	}
	if got := g.nodes[idx].Kind; got != want {
		return zerr.With(zerr.Wrap(domain.ErrNodeKindMismatch, got.String()), "want", want.String())
	}
	return nil
}
