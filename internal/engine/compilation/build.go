package compilation

import (
	"context"
	"slices"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/assetgraph"
	"go.trai.ch/strata/internal/engine/requestgraph"
	"golang.org/x/sync/errgroup"
)

// AssetGraphRequest builds the complete asset graph of the project.
type AssetGraphRequest struct {
	c *Compilation
}

// Key is constant: a compilation has one asset graph.
func (AssetGraphRequest) Key() string {
	return "asset_graph"
}

// Kind returns "asset_graph".
func (AssetGraphRequest) Kind() string {
	return "asset_graph"
}

// Run expands entries and targets, then resolves and transforms to a fixpoint.
// All diagnostics are collected before failing, so one build reports every problem.
func (r AssetGraphRequest) Run(ctx context.Context, rc *requestgraph.RunContext) (*Result, error) {
	deps, diags := r.entryDependencies(ctx, rc)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if domain.HasErrors(diags) {
		return nil, domain.NewDiagnosticError(domain.ErrBuildFailed, diags...)
	}

	graph := assetgraph.New()
	b := &builder{c: r.c, rc: rc, graph: graph}
	more, err := b.run(ctx, graph.AddEntryDependencies(deps))
	if err != nil {
		return nil, err
	}

	diags = append(diags, more...)
	if domain.HasErrors(diags) {
		return nil, domain.NewDiagnosticError(domain.ErrBuildFailed, diags...)
	}
	return &Result{Graph: graph, Diagnostics: diags}, nil
}

// entryDependencies returns one dependency per entry and target pair.
func (r AssetGraphRequest) entryDependencies(ctx context.Context, rc *requestgraph.RunContext) ([]*domain.Dependency, []domain.Diagnostic) {
	var (
		entries []domain.Entry
		diags   []domain.Diagnostic
	)
	for _, specifier := range r.c.options.Entries {
		found, err := requestgraph.Run(ctx, rc, EntryRequest{c: r.c, specifier: specifier})
		if err != nil {
			diags = append(diags, domain.DiagnosticsOf(err, Origin)...)
			continue
		}
		entries = append(entries, found...)
	}

	var deps []*domain.Dependency
	seen := make(map[domain.DependencyID]struct{})
	for _, entry := range entries {
		targets, err := requestgraph.Run(ctx, rc, TargetRequest{c: r.c, name: entry.Target})
		if err != nil {
			diags = append(diags, domain.DiagnosticsOf(err, Origin)...)
			continue
		}
		for _, target := range targets {
			dep := &domain.Dependency{
				Specifier:       entry.FilePath,
				SpecifierType:   domain.SpecifierURL,
				ResolveFrom:     r.c.root,
				Priority:        domain.PrioritySync,
				IsEntry:         true,
				NeedsStableName: true,
				Target:          target,
				Env:             target.Env,
			}
			if _, dup := seen[dep.ID()]; dup {
				continue
			}
			seen[dep.ID()] = struct{}{}
			deps = append(deps, dep)
		}
	}
	return deps, diags
}

// builder runs the resolve and transform worklist of one graph.
type builder struct {
	c     *Compilation
	rc    *requestgraph.RunContext
	graph *assetgraph.Graph
}

type outcome struct {
	next  []assetgraph.NodeIndex
	diags []domain.Diagnostic
	err   error
}

// run processes dependencies until none is left, at most parallelism at a time.
// Pending dependencies are taken last in, first out.
func (b *builder) run(ctx context.Context, seeds []assetgraph.NodeIndex) ([]domain.Diagnostic, error) {
	stack := slices.Clone(seeds)
	slices.Reverse(stack)

	var (
		g       errgroup.Group
		results = make(chan outcome)
		active  int
		diags   []domain.Diagnostic
	)
	for len(stack) > 0 || active > 0 {
		for len(stack) > 0 && active < b.c.parallelism && ctx.Err() == nil {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			active++
			g.Go(func() error {
				out := b.process(ctx, idx)
				results <- out
				return out.err
			})
		}
		if active == 0 {
			break
		}

		out := <-results
		active--
		diags = append(diags, out.diags...)
		for _, next := range slices.Backward(out.next) {
			stack = append(stack, next)
		}
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return diags, err
}

// process resolves one dependency and, when it reaches an asset not in the graph yet,
// transforms that asset and returns its dependencies.
func (b *builder) process(ctx context.Context, idx assetgraph.NodeIndex) outcome {
	node, _ := b.graph.Node(idx)
	dep := node.Dependency
	if err := b.graph.MarkResolving(idx); err != nil {
		return outcome{err: err}
	}

	path, err := requestgraph.Run(ctx, b.rc, PathRequest{c: b.c, dep: dep})
	if err != nil {
		return failed(ctx, err)
	}

	out := outcome{diags: path.Diagnostics}
	switch path.Kind {
	case ports.Excluded:
		out.err = b.graph.DeferDependency(idx, true)
		return out
	case ports.Unresolved:
		out.err = b.graph.DeferDependency(idx, false)
		out.diags = slices.Concat(out.diags, []domain.Diagnostic{deferredDiagnostic(dep)})
		return out
	}

	src := sourceAsset(dep, path.Resolution)
	assetIdx, created, err := b.graph.ResolveDependency(idx, src)
	if err != nil || !created {
		// An existing asset is transformed, or being transformed, by whoever created it.
		out.err = err
		return out
	}

	res, err := requestgraph.Run(ctx, b.rc, AssetRequest{c: b.c, asset: src})
	if err != nil {
		failure := failed(ctx, err)
		failure.diags = slices.Concat(out.diags, failure.diags)
		return failure
	}
	if err := b.graph.UpdateAsset(assetIdx, res.Asset); err != nil {
		out.err = err
		return out
	}

	next, err := b.link(assetIdx, res)
	out.next, out.err = next, err
	return out
}

// link attaches the dependencies and discovered assets of a transformed asset.
// A discovered asset whose unique key is some dependency's specifier is reached through
// that dependency; any other is linked directly under the asset so it is not lost.
func (b *builder) link(assetIdx assetgraph.NodeIndex, res ports.TransformResult) ([]assetgraph.NodeIndex, error) {
	parent := res.Asset

	discovered := make(map[string]*domain.Asset, len(res.DiscoveredAssets))
	for _, a := range res.DiscoveredAssets {
		if a.UniqueKey != "" {
			discovered[a.UniqueKey] = a
		}
	}

	var next []assetgraph.NodeIndex
	queued := make(map[assetgraph.NodeIndex]struct{})
	reached := make(map[domain.AssetID]struct{})
	for _, d := range res.Dependencies {
		child := *d
		child.SourceAssetID = parent.ID
		child.SourcePath = parent.FilePath
		if child.Env == nil {
			child.Env = parent.Env
		}
		if child.Priority == "" {
			child.Priority = domain.PrioritySync
		}

		idx, err := b.graph.AddDependency(assetIdx, &child)
		if err != nil {
			return nil, err
		}

		if a, ok := discovered[child.Specifier]; ok {
			if _, _, err := b.graph.ResolveDependency(idx, a); err != nil {
				return nil, err
			}
			reached[a.ID] = struct{}{}
			continue
		}

		if _, dup := queued[idx]; dup {
			continue
		}
		if n, _ := b.graph.Node(idx); n.State == assetgraph.StateNew {
			queued[idx] = struct{}{}
			next = append(next, idx)
		}
	}

	for _, a := range res.DiscoveredAssets {
		if _, ok := reached[a.ID]; ok {
			continue
		}
		if _, err := b.graph.AddDiscoveredAsset(assetIdx, a); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// failed turns a request error into diagnostics. Cancellation stays an error.
func failed(ctx context.Context, err error) outcome {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcome{err: ctxErr}
	}
	return outcome{diags: domain.DiagnosticsOf(err, Origin)}
}
