// Package requestgraph schedules cacheable, invalidation-tracked units of work.
//
// A request is identified by a deterministic key. Within one build generation each key runs
// at most once; concurrent callers of a running key wait for that execution. A Valid result is
// reused across generations until one of the files the request read changes, which invalidates
// the request and, through sub-request edges, every request that depended on it.
//
// Files read through a RunContext are stamped. Before a request is marked Valid its stamps are
// compared with the file system again; a request whose inputs changed while it ran is left
// Invalid so the change is picked up by the next build.
package requestgraph

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// State is the validity of a request node.
type State uint8

const (
	// StateIncomplete is a request that is running.
	StateIncomplete State = iota
	// StateValid is a request whose result may be reused.
	StateValid
	// StateInvalid is a request whose previous result is stale.
	StateInvalid
	// StateError is a request whose last run failed. It is retried by the next generation.
	StateError
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateIncomplete:
		return "incomplete"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return "error"
	}
}

// NodeKind is the type of a request graph node.
type NodeKind uint8

const (
	// KindRoot is the parent of requests started outside any other request.
	KindRoot NodeKind = iota
	// KindRequest is a unit of work.
	KindRequest
	// KindFile is a file that requests depend on.
	KindFile
)

// EdgeKind is the type of a request graph edge.
type EdgeKind uint8

const (
	// EdgeSubRequest connects a request to a request it ran.
	EdgeSubRequest EdgeKind = iota
	// EdgeFileChange connects a request to a file whose change invalidates it.
	EdgeFileChange
)

// Edge is a directed edge between two node keys. File nodes are keyed by path.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// Request is a unit of work producing a T.
type Request[T any] interface {
	// Key identifies the request; equal keys must describe the same work.
	Key() string
	// Kind names the request type for stats and tracing.
	Kind() string
	// Run computes the result, reading inputs through rc.
	Run(ctx context.Context, rc *RunContext) (T, error)
}

// Scope is where a request is started from: the graph root or a running request.
type Scope interface {
	scope() (*Graph, int)
}

// execution is one run of a request node.
type execution struct {
	done   chan struct{}
	result any
	err    error
	state  State
}

type node struct {
	kind    NodeKind
	key     string
	reqKind string

	state  State
	result any
	err    error
	exec   *execution
	gen    uint64
	dirty  bool
	stamps map[string]Stamp

	subs       map[int]struct{}
	files      map[int]struct{}
	dependents map[int]struct{}
}

func newNode(kind NodeKind, key, reqKind string) *node {
	return &node{
		kind:       kind,
		key:        key,
		reqKind:    reqKind,
		subs:       make(map[int]struct{}),
		files:      make(map[int]struct{}),
		dependents: make(map[int]struct{}),
	}
}

// Graph is the request graph of a build session. It is safe for concurrent use.
type Graph struct {
	fs     ports.FileSystem
	stats  ports.StatsRecorder
	tracer ports.Tracer

	mu     sync.Mutex
	nodes  []*node
	byKey  map[string]int
	byFile map[string]int
	gen    uint64
}

// New creates an empty graph. stats and tracer may be nil.
func New(fsys ports.FileSystem, stats ports.StatsRecorder, tracer ports.Tracer) *Graph {
	return &Graph{
		fs:     fsys,
		stats:  stats,
		tracer: tracer,
		nodes:  []*node{newNode(KindRoot, "", "")},
		byKey:  make(map[string]int),
		byFile: make(map[string]int),
		gen:    1,
	}
}

func (g *Graph) scope() (*Graph, int) {
	return g, 0
}

// NewGeneration starts a new build. Invalid and failed requests run again in the new generation.
func (g *Graph) NewGeneration() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
}

// Run executes req from scope, reusing a valid result when there is one.
func Run[T any](ctx context.Context, s Scope, req Request[T]) (T, error) {
	g, parent := s.scope()
	var zero T

	v, err := g.run(ctx, parent, req.Key(), req.Kind(), func(ctx context.Context, rc *RunContext) (any, error) {
		return req.Run(ctx, rc)
	})
	if err != nil {
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		return zero, zerr.With(zerr.Wrap(domain.ErrRequestResultType, fmt.Sprintf("%T", v)), "key", req.Key())
	}
	return t, nil
}

type runFunc func(context.Context, *RunContext) (any, error)

func (g *Graph) run(ctx context.Context, parent int, key, kind string, fn runFunc) (any, error) {
	g.mu.Lock()
	idx, ok := g.byKey[key]
	if !ok {
		idx = g.appendLocked(newNode(KindRequest, key, kind))
		g.byKey[key] = idx
	}
	g.linkLocked(parent, idx)
	n := g.nodes[idx]

	switch {
	case n.state == StateValid && n.exec != nil:
		result := n.result
		g.mu.Unlock()
		g.record(kind, "hit")
		return result, nil

	case n.exec != nil && (n.state == StateIncomplete || n.gen == g.gen):
		// Running now, or already ran in this generation.
		ex := n.exec
		g.mu.Unlock()
		select {
		case <-ex.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return ex.result, ex.err
	}

	rerun := n.exec != nil && n.state == StateInvalid
	ex := g.startLocked(idx)
	g.mu.Unlock()

	result, err := g.execute(ctx, idx, key, kind, fn)
	g.finish(idx, ex, result, err, rerun)
	return ex.result, ex.err
}

// startLocked resets the node's inputs and begins a new execution.
func (g *Graph) startLocked(idx int) *execution {
	n := g.nodes[idx]
	for sub := range n.subs {
		delete(g.nodes[sub].dependents, idx)
	}
	for file := range n.files {
		delete(g.nodes[file].dependents, idx)
	}
	clear(n.subs)
	clear(n.files)

	ex := &execution{done: make(chan struct{})}
	n.exec = ex
	n.state = StateIncomplete
	n.gen = g.gen
	n.dirty = false
	n.stamps = make(map[string]Stamp)
	return ex
}

func (g *Graph) execute(ctx context.Context, idx int, key, kind string, fn runFunc) (any, error) {
	rc := &RunContext{g: g, idx: idx, key: key}
	if g.tracer == nil {
		return fn(ctx, rc)
	}

	ctx, span := g.tracer.Start(ctx, kind+" "+key, ports.WithKind(kind))
	defer span.End()
	result, err := fn(ctx, rc)
	if err != nil {
		span.RecordError(err)
	}
	return result, err
}

func (g *Graph) finish(idx int, ex *execution, result any, err error, rerun bool) {
	g.mu.Lock()
	n := g.nodes[idx]
	stamps := maps.Clone(n.stamps)
	g.mu.Unlock()

	changed := err == nil && g.stampsChanged(stamps)

	g.mu.Lock()
	defer g.mu.Unlock()
	defer close(ex.done)

	if err != nil {
		n.state, n.err = StateError, err
		ex.state, ex.err = StateError, err
		g.record(n.reqKind, "error")
		return
	}

	n.result, n.err = result, nil
	ex.result = result
	if changed || n.dirty || g.staleSubsLocked(n) {
		n.state = StateInvalid
	} else {
		n.state = StateValid
	}
	ex.state = n.state

	if rerun {
		g.record(n.reqKind, "bailout")
	} else {
		g.record(n.reqKind, "miss")
	}
}

// staleSubsLocked reports whether any sub-request of n is not valid.
func (g *Graph) staleSubsLocked(n *node) bool {
	for sub := range n.subs {
		if s := g.nodes[sub].state; s == StateInvalid || s == StateError {
			return true
		}
	}
	return false
}

func (g *Graph) record(kind, event string) {
	if g.stats == nil {
		return
	}
	switch event {
	case "hit":
		g.stats.Hit(kind)
	case "miss":
		g.stats.Miss(kind)
	case "bailout":
		g.stats.Bailout(kind)
	default:
		g.stats.Error(kind)
	}
}

func (g *Graph) appendLocked(n *node) int {
	g.nodes = append(g.nodes, n)
	return len(g.nodes) - 1
}

// linkLocked records a sub-request edge, or a file edge when child is a file node.
func (g *Graph) linkLocked(parent, child int) {
	p := g.nodes[parent]
	if g.nodes[child].kind == KindFile {
		p.files[child] = struct{}{}
	} else {
		p.subs[child] = struct{}{}
	}
	g.nodes[child].dependents[parent] = struct{}{}
}

func (g *Graph) fileNodeLocked(path string) int {
	if idx, ok := g.byFile[path]; ok {
		return idx
	}
	idx := g.appendLocked(newNode(KindFile, path, ""))
	g.byFile[path] = idx
	return idx
}

// Invalidate marks every request that depends on one of paths as Invalid, together with every
// request that reached it through sub-request edges. It returns the number of requests that
// went from Valid to Invalid. Running requests are flagged so they finish Invalid.
func (g *Graph) Invalidate(paths ...string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	var queue []int
	for _, path := range paths {
		if idx, ok := g.byFile[path]; ok {
			for dep := range g.nodes[idx].dependents {
				queue = append(queue, dep)
			}
		}
	}
	return g.invalidateLocked(queue)
}

// InvalidateAll marks every request Invalid, e.g. after the build configuration changed.
func (g *Graph) InvalidateAll() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	queue := make([]int, 0, len(g.byKey))
	for _, idx := range g.byKey {
		queue = append(queue, idx)
	}
	return g.invalidateLocked(queue)
}

func (g *Graph) invalidateLocked(queue []int) int {
	count := 0
	seen := make(map[int]bool)
	for len(queue) > 0 {
		idx := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if seen[idx] {
			continue
		}
		seen[idx] = true

		n := g.nodes[idx]
		switch n.kind {
		case KindRoot, KindFile:
			continue
		}

		switch n.state {
		case StateValid:
			n.state = StateInvalid
			n.gen = 0
			count++
		case StateInvalid, StateError:
			n.gen = 0
		case StateIncomplete:
			n.dirty = true
		}
		for dep := range n.dependents {
			queue = append(queue, dep)
		}
	}
	return count
}

// State returns the state of the request with key.
func (g *Graph) State(key string) (State, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx, ok := g.byKey[key]
	if !ok {
		return 0, false
	}
	return g.nodes[idx].state, true
}

// Len returns the number of request nodes.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.byKey)
}

// Edges returns the sub-request and file edges of the graph, sorted.
// Edges from the root have an empty From key.
func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []Edge
	for _, n := range g.nodes {
		for sub := range n.subs {
			out = append(out, Edge{From: n.key, To: g.nodes[sub].key, Kind: EdgeSubRequest})
		}
		for file := range n.files {
			out = append(out, Edge{From: n.key, To: g.nodes[file].key, Kind: EdgeFileChange})
		}
	}
	slices.SortFunc(out, func(a, b Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	return out
}
