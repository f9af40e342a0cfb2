package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/core/ports/mocks"
	"go.trai.ch/strata/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

func node(name string) domain.PluginNode {
	return domain.PluginNode{PackageName: name, ResolveFrom: "/p/.stratarc"}
}

func resolverMock(ctrl *gomock.Controller, name string) *mocks.MockResolverPlugin {
	r := mocks.NewMockResolverPlugin(ctrl)
	r.EXPECT().Name().Return(name).AnyTimes()
	return r
}

func transformerMock(ctrl *gomock.Controller, name string) *mocks.MockTransformerPlugin {
	tr := mocks.NewMockTransformerPlugin(ctrl)
	tr.EXPECT().Name().Return(name).AnyTimes()
	return tr
}

func TestResolve_FirstResponderWins(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	first := resolverMock(ctrl, "first")
	second := resolverMock(ctrl, "second")

	loader := mocks.NewMockPluginLoader(ctrl)
	loader.EXPECT().LoadResolver(gomock.Any(), node("first")).Return(first, nil)
	loader.EXPECT().LoadResolver(gomock.Any(), node("second")).Return(second, nil)

	dep := &domain.Dependency{Specifier: "./a", SourcePath: "/p/index.js"}
	first.EXPECT().Resolve(gomock.Any(), dep).Return(ports.Resolution{
		Kind:                   ports.Unresolved,
		InvalidateOnFileChange: []string{"/p/a.js"},
	}, nil)
	second.EXPECT().Resolve(gomock.Any(), dep).Return(ports.Resolution{
		Kind:                   ports.Resolved,
		FilePath:               "/p/a.ts",
		InvalidateOnFileChange: []string{"/p/a.ts"},
	}, nil)

	p := pipeline.New(&domain.PluginConfig{
		Resolvers: []domain.PluginNode{node("first"), node("second"), node("third")},
	}, loader)

	res, by, err := p.Resolve(context.Background(), dep)
	require.NoError(t, err)
	assert.Equal(t, "second", by)
	assert.Equal(t, ports.Resolved, res.Kind)
	assert.Equal(t, "/p/a.ts", res.FilePath)
	assert.Equal(t, []string{"/p/a.js", "/p/a.ts"}, res.InvalidateOnFileChange)
}

func TestResolve_ExcludedStopsThePipeline(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	excluding := resolverMock(ctrl, "excluding")
	loader := mocks.NewMockPluginLoader(ctrl)
	loader.EXPECT().LoadResolver(gomock.Any(), node("excluding")).Return(excluding, nil)
	excluding.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(ports.Resolution{Kind: ports.Excluded}, nil)

	p := pipeline.New(&domain.PluginConfig{
		Resolvers: []domain.PluginNode{node("excluding"), node("never")},
	}, loader)

	res, by, err := p.Resolve(context.Background(), &domain.Dependency{Specifier: "fs"})
	require.NoError(t, err)
	assert.Equal(t, ports.Excluded, res.Kind)
	assert.Equal(t, "excluding", by)
}

func TestResolve_UnresolvedAccumulates(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	a := resolverMock(ctrl, "a")
	b := resolverMock(ctrl, "b")
	loader := mocks.NewMockPluginLoader(ctrl)
	loader.EXPECT().LoadResolver(gomock.Any(), node("a")).Return(a, nil)
	loader.EXPECT().LoadResolver(gomock.Any(), node("b")).Return(b, nil)
	a.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(ports.Resolution{
		InvalidateOnFileChange: []string{"/p/x.js"},
		Diagnostics:            []domain.Diagnostic{{Severity: domain.SeverityWarning, Message: "tried x"}},
	}, nil)
	b.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(ports.Resolution{
		InvalidateOnFileChange: []string{"/p/x.ts"},
	}, nil)

	p := pipeline.New(&domain.PluginConfig{Resolvers: []domain.PluginNode{node("a"), node("b")}}, loader)

	res, by, err := p.Resolve(context.Background(), &domain.Dependency{Specifier: "./x"})
	require.NoError(t, err)
	assert.Empty(t, by)
	assert.Equal(t, ports.Unresolved, res.Kind)
	assert.Equal(t, []string{"/p/x.js", "/p/x.ts"}, res.InvalidateOnFileChange)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "a", res.Diagnostics[0].Origin)
}

func TestResolve_PluginErrorIsAttributed(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	broken := resolverMock(ctrl, "broken")
	loader := mocks.NewMockPluginLoader(ctrl)
	loader.EXPECT().LoadResolver(gomock.Any(), gomock.Any()).Return(broken, nil)
	broken.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(ports.Resolution{}, errors.New("boom"))

	p := pipeline.New(&domain.PluginConfig{Resolvers: []domain.PluginNode{node("broken")}}, loader)

	dep := &domain.Dependency{
		Specifier:  "./y",
		SourcePath: "/p/index.js",
		Loc: &domain.SourceLocation{
			Start: domain.Position{Line: 1, Column: 8},
			End:   domain.Position{Line: 1, Column: 12},
		},
	}
	_, _, err := p.Resolve(context.Background(), dep)
	require.ErrorIs(t, err, domain.ErrResolutionFailed)

	diags := domain.DiagnosticsOf(err, "")
	require.Len(t, diags, 1)
	assert.Equal(t, "broken", diags[0].Origin)
	assert.Contains(t, diags[0].Message, "./y")
	assert.Contains(t, diags[0].Message, "boom")
	require.Len(t, diags[0].CodeFrames, 1)
	assert.Equal(t, "/p/index.js", diags[0].CodeFrames[0].FilePath)
}

func TestResolve_NoResolvers(t *testing.T) {
	t.Parallel()
	p := pipeline.New(&domain.PluginConfig{FilePath: "/p/.stratarc"}, mocks.NewMockPluginLoader(gomock.NewController(t)))

	_, _, err := p.Resolve(context.Background(), &domain.Dependency{Specifier: "a"})
	require.ErrorIs(t, err, domain.ErrResolutionFailed)
}

func TestResolve_LoadFailure(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	loader := mocks.NewMockPluginLoader(ctrl)
	loader.EXPECT().LoadResolver(gomock.Any(), node("missing")).Return(nil, domain.ErrPluginNotFound).Times(2)

	p := pipeline.New(&domain.PluginConfig{Resolvers: []domain.PluginNode{node("missing")}}, loader)

	for range 2 {
		_, _, err := p.Resolve(context.Background(), &domain.Dependency{Specifier: "a"})
		require.ErrorIs(t, err, domain.ErrResolutionFailed)
		diags := domain.DiagnosticsOf(err, "")
		require.Len(t, diags, 1)
		assert.Equal(t, "missing", diags[0].Origin)
	}
}

func TestPlugins_LoadedOnceUnderConcurrency(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	r := resolverMock(ctrl, "r")
	r.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(ports.Resolution{Kind: ports.Resolved, FilePath: "/p/a.js"}, nil).Times(16)
	loader := mocks.NewMockPluginLoader(ctrl)
	loader.EXPECT().LoadResolver(gomock.Any(), node("r")).Return(r, nil).Times(1)

	p := pipeline.New(&domain.PluginConfig{Resolvers: []domain.PluginNode{node("r")}}, loader)

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			_, _, err := p.Resolve(context.Background(), &domain.Dependency{Specifier: "./a"})
			assert.NoError(t, err)
		})
	}
	wg.Wait()
}

func TestPlugins_FailedLoadIsRetried(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	js := transformerMock(ctrl, "js")
	js.EXPECT().Transform(gomock.Any(), gomock.Any()).Return(ports.TransformResult{}, nil).Times(2)
	loader := mocks.NewMockPluginLoader(ctrl)
	gomock.InOrder(
		loader.EXPECT().LoadTransformer(gomock.Any(), node("js")).Return(nil, errors.New("worker restarting")),
		loader.EXPECT().LoadTransformer(gomock.Any(), node("js")).Return(js, nil).Times(1),
	)

	p := pipeline.New(&domain.PluginConfig{
		Transformers: []domain.GlobPipeline{{Glob: "*.js", Plugins: []domain.PluginNode{node("js")}}},
	}, loader)
	asset := &domain.Asset{FilePath: "/p/a.js"}

	_, err := p.Transform(context.Background(), asset)
	require.ErrorIs(t, err, domain.ErrTransformFailed)

	for range 2 {
		_, err = p.Transform(context.Background(), asset)
		require.NoError(t, err)
	}
}

func TestPlugins_LoadSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	r := resolverMock(ctrl, "r")
	r.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(ports.Resolution{Kind: ports.Resolved}, nil)
	loader := mocks.NewMockPluginLoader(ctrl)
	loader.EXPECT().LoadResolver(gomock.Any(), node("r")).DoAndReturn(
		func(ctx context.Context, _ domain.PluginNode) (ports.ResolverPlugin, error) {
			assert.NoError(t, ctx.Err())
			return r, nil
		})

	p := pipeline.New(&domain.PluginConfig{Resolvers: []domain.PluginNode{node("r")}}, loader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := p.Resolve(ctx, &domain.Dependency{Specifier: "./a"})
	require.NoError(t, err)
}

func TestTransform_RunsPipelineInOrder(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	ts := transformerMock(ctrl, "ts")
	js := transformerMock(ctrl, "js")
	loader := mocks.NewMockPluginLoader(ctrl)
	loader.EXPECT().LoadTransformer(gomock.Any(), node("ts")).Return(ts, nil)
	loader.EXPECT().LoadTransformer(gomock.Any(), node("js")).Return(js, nil)

	source := &domain.Asset{FilePath: "/p/a.ts", Code: []byte("let a: number = 1")}
	stripped := &domain.Asset{FilePath: "/p/a.ts", Code: []byte("let a = 1")}
	final := &domain.Asset{FilePath: "/p/a.ts", Code: []byte("let a=1;")}

	gomock.InOrder(
		ts.EXPECT().Transform(gomock.Any(), source).Return(ports.TransformResult{
			Asset:                  stripped,
			InvalidateOnFileChange: []string{"/p/tsconfig.json"},
		}, nil),
		js.EXPECT().Transform(gomock.Any(), stripped).Return(ports.TransformResult{
			Asset:            final,
			Dependencies:     []*domain.Dependency{{Specifier: "./b"}},
			DiscoveredAssets: []*domain.Asset{{FilePath: "/p/a.ts", UniqueKey: "style"}},
		}, nil),
	)

	p := pipeline.New(&domain.PluginConfig{
		Transformers: []domain.GlobPipeline{
			{Glob: "*.{ts,tsx}", Plugins: []domain.PluginNode{node("ts"), node("js")}},
			{Glob: "*.js", Plugins: []domain.PluginNode{node("js")}},
		},
	}, loader)

	res, err := p.Transform(context.Background(), source)
	require.NoError(t, err)
	assert.Same(t, final, res.Asset)
	require.Len(t, res.Dependencies, 1)
	assert.Equal(t, "./b", res.Dependencies[0].Specifier)
	assert.Len(t, res.DiscoveredAssets, 1)
	assert.Equal(t, []string{"/p/tsconfig.json"}, res.InvalidateOnFileChange)
}

func TestTransform_KeepsAssetWhenPluginReturnsNone(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	noop := transformerMock(ctrl, "noop")
	loader := mocks.NewMockPluginLoader(ctrl)
	loader.EXPECT().LoadTransformer(gomock.Any(), gomock.Any()).Return(noop, nil)
	noop.EXPECT().Transform(gomock.Any(), gomock.Any()).Return(ports.TransformResult{}, nil)

	p := pipeline.New(&domain.PluginConfig{
		Transformers: []domain.GlobPipeline{{Glob: "*", Plugins: []domain.PluginNode{node("noop")}}},
	}, loader)

	asset := &domain.Asset{FilePath: "/p/a.txt"}
	res, err := p.Transform(context.Background(), asset)
	require.NoError(t, err)
	assert.Same(t, asset, res.Asset)
}

func TestTransform_NamedPipeline(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	raw := transformerMock(ctrl, "raw")
	loader := mocks.NewMockPluginLoader(ctrl)
	loader.EXPECT().LoadTransformer(gomock.Any(), node("raw")).Return(raw, nil)
	raw.EXPECT().Transform(gomock.Any(), gomock.Any()).Return(ports.TransformResult{}, nil)

	p := pipeline.New(&domain.PluginConfig{
		Transformers: []domain.GlobPipeline{
			{Glob: "raw:*", Plugins: []domain.PluginNode{node("raw")}},
			{Glob: "*.js", Plugins: []domain.PluginNode{node("js")}},
		},
	}, loader)

	_, err := p.Transform(context.Background(), &domain.Asset{FilePath: "/p/a.js", Pipeline: "raw"})
	require.NoError(t, err)
}

func TestTransform_NoMatchingPipeline(t *testing.T) {
	t.Parallel()
	p := pipeline.New(&domain.PluginConfig{
		FilePath:     "/p/.stratarc",
		Transformers: []domain.GlobPipeline{{Glob: "*.js", Plugins: []domain.PluginNode{node("js")}}},
	}, mocks.NewMockPluginLoader(gomock.NewController(t)))

	_, err := p.Transform(context.Background(), &domain.Asset{FilePath: "/p/a.wasm"})
	require.ErrorIs(t, err, domain.ErrTransformFailed)
	diags := domain.DiagnosticsOf(err, "")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "a.wasm")
}

func TestTransform_PluginErrorIsAttributed(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	js := transformerMock(ctrl, "js")
	loader := mocks.NewMockPluginLoader(ctrl)
	loader.EXPECT().LoadTransformer(gomock.Any(), gomock.Any()).Return(js, nil)
	js.EXPECT().Transform(gomock.Any(), gomock.Any()).Return(ports.TransformResult{},
		domain.NewDiagnosticError(domain.ErrTransformFailed,
			domain.Diagnostic{Severity: domain.SeverityError, Message: "unexpected token"},
			domain.Diagnostic{Severity: domain.SeverityError, Message: "unterminated string", Origin: "esbuild"},
		))

	p := pipeline.New(&domain.PluginConfig{
		Transformers: []domain.GlobPipeline{{Glob: "*.js", Plugins: []domain.PluginNode{node("js")}}},
	}, loader)

	_, err := p.Transform(context.Background(), &domain.Asset{FilePath: "/p/a.js"})
	require.ErrorIs(t, err, domain.ErrTransformFailed)

	diags := domain.DiagnosticsOf(err, "")
	require.Len(t, diags, 2)
	assert.Equal(t, "js", diags[0].Origin)
	assert.Equal(t, "esbuild", diags[1].Origin)
	for _, d := range diags {
		require.Len(t, d.CodeFrames, 1)
		assert.Equal(t, "/p/a.js", d.CodeFrames[0].FilePath)
	}
}

func TestID_FollowsConfig(t *testing.T) {
	t.Parallel()
	loader := mocks.NewMockPluginLoader(gomock.NewController(t))

	a := pipeline.New(&domain.PluginConfig{Resolvers: []domain.PluginNode{node("a")}}, loader)
	b := pipeline.New(&domain.PluginConfig{Resolvers: []domain.PluginNode{node("b")}}, loader)
	a2 := pipeline.New(&domain.PluginConfig{Resolvers: []domain.PluginNode{node("a")}}, loader)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, a.ID(), a2.ID())
}
