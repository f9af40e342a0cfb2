package assetgraph_test

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/assetgraph"
)

var env = domain.InternEnvironment(domain.DefaultEnvironment())

func entryDep(path string) *domain.Dependency {
	return &domain.Dependency{
		Specifier:     path,
		SpecifierType: domain.SpecifierURL,
		ResolveFrom:   "/p",
		Priority:      domain.PrioritySync,
		IsEntry:       true,
		Env:           env,
		Target:        &domain.Target{Name: "default", DistDir: "/p/dist", Env: env},
	}
}

func dep(from *domain.Asset, specifier string) *domain.Dependency {
	return &domain.Dependency{
		Specifier:     specifier,
		SpecifierType: domain.SpecifierESM,
		SourceAssetID: from.ID,
		SourcePath:    from.FilePath,
		Priority:      domain.PrioritySync,
		Env:           env,
	}
}

func asset(path string) *domain.Asset {
	a := &domain.Asset{
		FilePath: path,
		FileType: domain.NewInternedString(domain.FileTypeOf(path)),
		Env:      env,
		IsSource: true,
	}
	a.ID = domain.NewAssetID(a.IDParams())
	return a
}

func TestGraph_ResolveAndDeduplicate(t *testing.T) {
	t.Parallel()

	g := assetgraph.New()
	entries := g.AddEntryDependencies([]*domain.Dependency{entryDep("/p/src/a.js"), entryDep("/p/src/b.js")})
	require.Len(t, entries, 2)

	a, b := asset("/p/src/a.js"), asset("/p/src/b.js")
	ia, created, err := g.ResolveDependency(entries[0], a)
	require.NoError(t, err)
	assert.True(t, created)
	ib, _, err := g.ResolveDependency(entries[1], b)
	require.NoError(t, err)

	da, err := g.AddDependency(ia, dep(a, "./shared.js"))
	require.NoError(t, err)
	db, err := g.AddDependency(ib, dep(b, "./shared.js"))
	require.NoError(t, err)
	assert.NotEqual(t, da, db)

	s1, created, err := g.ResolveDependency(da, asset("/p/src/shared.js"))
	require.NoError(t, err)
	assert.True(t, created)
	s2, created, err := g.ResolveDependency(db, asset("/p/src/shared.js"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, s1, s2)

	counts := g.Counts()
	assert.Equal(t, 3, counts[assetgraph.KindAsset])
	assert.Equal(t, 4, counts[assetgraph.KindDependency])
	assert.Len(t, g.Parents(s1), 2)
}

func TestGraph_SameDependencyAddedOnce(t *testing.T) {
	t.Parallel()

	g := assetgraph.New()
	entries := g.AddEntryDependencies([]*domain.Dependency{entryDep("/p/src/a.js")})
	a := asset("/p/src/a.js")
	ia, _, err := g.ResolveDependency(entries[0], a)
	require.NoError(t, err)

	first, err := g.AddDependency(ia, dep(a, "./x.js"))
	require.NoError(t, err)
	second, err := g.AddDependency(ia, dep(a, "./x.js"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, g.Children(ia), 1)
}

func TestGraph_DependencyStates(t *testing.T) {
	t.Parallel()

	g := assetgraph.New()
	idx := g.AddEntryDependencies([]*domain.Dependency{entryDep("/p/src/a.js")})[0]

	n, _ := g.Node(idx)
	assert.Equal(t, assetgraph.StateNew, n.State)

	require.NoError(t, g.MarkResolving(idx))
	n, _ = g.Node(idx)
	assert.Equal(t, assetgraph.StateResolving, n.State)

	require.NoError(t, g.DeferDependency(idx, true))
	n, _ = g.Node(idx)
	assert.Equal(t, assetgraph.StateDeferred, n.State)
	assert.True(t, n.Excluded)
	assert.Equal(t, []assetgraph.NodeIndex{idx}, g.Deferred())

	// A deferred dependency may still resolve later; it then loses the excluded flag.
	_, _, err := g.ResolveDependency(idx, asset("/p/src/a.js"))
	require.NoError(t, err)
	n, _ = g.Node(idx)
	assert.Equal(t, assetgraph.StateResolved, n.State)
	assert.False(t, n.Excluded)
	assert.Empty(t, g.Deferred())
}

func TestGraph_AtMostOneAssetPerDependency(t *testing.T) {
	t.Parallel()

	g := assetgraph.New()
	idx := g.AddEntryDependencies([]*domain.Dependency{entryDep("/p/src/a.js")})[0]

	first, _, err := g.ResolveDependency(idx, asset("/p/src/a.js"))
	require.NoError(t, err)

	again, created, err := g.ResolveDependency(idx, asset("/p/src/a.js"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, again)

	_, _, err = g.ResolveDependency(idx, asset("/p/src/other.js"))
	require.ErrorIs(t, err, domain.ErrDependencyAlreadyResolved)

	require.ErrorIs(t, g.DeferDependency(idx, false), domain.ErrDependencyAlreadyResolved)
}

func TestGraph_KindChecks(t *testing.T) {
	t.Parallel()

	g := assetgraph.New()
	_, err := g.AddDependency(g.RootNode(), entryDep("/p/a.js"))
	require.ErrorIs(t, err, domain.ErrNodeKindMismatch)

	require.ErrorIs(t, g.MarkResolving(42), domain.ErrNodeNotFound)
	_, err = g.AddDiscoveredAsset(7, asset("/p/a.css"))
	require.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestGraph_UpdateAssetKeepsIdentity(t *testing.T) {
	t.Parallel()

	g := assetgraph.New()
	entries := g.AddEntryDependencies([]*domain.Dependency{entryDep("/p/a.ts")})
	src := asset("/p/a.ts")
	idx, _, err := g.ResolveDependency(entries[0], src)
	require.NoError(t, err)

	transformed := *src
	transformed.Code = []byte("export const a = 1;")
	transformed.FileType = domain.NewInternedString("js")
	require.NoError(t, g.UpdateAsset(idx, &transformed))

	n, ok := g.Node(idx)
	require.True(t, ok)
	assert.Same(t, &transformed, n.Asset)

	require.ErrorIs(t, g.UpdateAsset(idx, asset("/p/b.ts")), domain.ErrNodeKindMismatch)
	require.ErrorIs(t, g.UpdateAsset(entries[0], src), domain.ErrNodeKindMismatch)
}

func TestGraph_EntryOrderIsDeterministic(t *testing.T) {
	t.Parallel()

	paths := []string{"/p/a.js", "/p/b.js", "/p/c.js", "/p/d.js", "/p/e.js", "/p/f.js"}
	order := func(shuffled []string) []domain.DependencyID {
		deps := make([]*domain.Dependency, 0, len(shuffled))
		for _, p := range shuffled {
			deps = append(deps, entryDep(p))
		}
		g := assetgraph.New()
		g.AddEntryDependencies(deps)

		var ids []domain.DependencyID
		for _, e := range g.Children(g.RootNode()) {
			n, _ := g.Node(e.To)
			ids = append(ids, n.Dependency.ID())
		}
		return ids
	}

	want := order(paths)
	for range 20 {
		shuffled := append([]string(nil), paths...)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, order(shuffled))
	}
}

func TestGraph_Dump(t *testing.T) {
	t.Parallel()

	g := assetgraph.New()
	entries := g.AddEntryDependencies([]*domain.Dependency{entryDep("/p/src/index.js")})
	index := asset("/p/src/index.js")
	ii, _, err := g.ResolveDependency(entries[0], index)
	require.NoError(t, err)

	util := asset("/p/src/util.js")
	du, err := g.AddDependency(ii, dep(index, "./util.js"))
	require.NoError(t, err)
	iu, _, err := g.ResolveDependency(du, util)
	require.NoError(t, err)

	// util imports index back: the cycle is printed once and cut.
	back, err := g.AddDependency(iu, dep(util, "./index.js"))
	require.NoError(t, err)
	_, _, err = g.ResolveDependency(back, index)
	require.NoError(t, err)

	optional := dep(index, "./missing.js")
	optional.IsOptional = true
	dm, err := g.AddDependency(ii, optional)
	require.NoError(t, err)
	require.NoError(t, g.DeferDependency(dm, false))

	dfs, err := g.AddDependency(ii, dep(index, "fs"))
	require.NoError(t, err)
	require.NoError(t, g.DeferDependency(dfs, true))

	_, err = g.AddDiscoveredAsset(ii, asset("/p/src/index.css"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.Dump(&buf, "/p"))
	goldie.New(t).Assert(t, "dump", buf.Bytes())
}
