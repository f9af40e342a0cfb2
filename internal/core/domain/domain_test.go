package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestEnvironment_InternSharesInstance(t *testing.T) {
	a := domain.InternEnvironment(domain.Environment{
		Context:      domain.ContextNode,
		Engines:      map[string]string{"node": ">=20"},
		OutputFormat: domain.FormatCommonJS,
	})
	b := domain.InternEnvironment(domain.Environment{
		Context:      domain.ContextNode,
		Engines:      map[string]string{"node": ">=20"},
		OutputFormat: domain.FormatCommonJS,
	})

	assert.Same(t, a, b)
	assert.Equal(t, a.ID(), b.ID())
	assert.True(t, a.IsNode())
	assert.False(t, a.IsBrowser())
}

func TestReintern_RestoresSharedEnvironment(t *testing.T) {
	shared := domain.InternEnvironment(domain.DefaultEnvironment())
	decoded := *shared

	asset := &domain.Asset{Env: &decoded}
	asset.Reintern()
	assert.Same(t, shared, asset.Env)

	target := &domain.Target{Name: "default", Env: &decoded}
	dep := &domain.Dependency{Env: &decoded, Target: target}
	dep.Reintern()
	assert.Same(t, shared, dep.Env)
	assert.Same(t, shared, dep.Target.Env)

	var none *domain.Asset
	none.Reintern()
}

func TestEnvironment_IDDiffersByField(t *testing.T) {
	base := domain.DefaultEnvironment()
	optimized := domain.DefaultEnvironment()
	optimized.ShouldOptimize = true

	assert.NotEqual(t, base.ID(), optimized.ID())
	assert.Len(t, base.ID(), 16)
}

func TestDependency_IDIsStable(t *testing.T) {
	env := domain.InternEnvironment(domain.DefaultEnvironment())
	dep := func() *domain.Dependency {
		return &domain.Dependency{
			Specifier:         "./util.js",
			SpecifierType:     domain.SpecifierESM,
			SourceAssetID:     "abc",
			Priority:          domain.PrioritySync,
			Env:               env,
			PackageConditions: []string{"import", "browser"},
		}
	}

	first := dep()
	second := dep()
	second.PackageConditions = []string{"browser", "import"}
	second.Loc = &domain.SourceLocation{FilePath: "x.js", Start: domain.Position{Line: 3, Column: 1}}

	assert.Equal(t, first.ID(), second.ID(), "location and condition order must not affect identity")

	lazy := dep()
	lazy.Priority = domain.PriorityLazy
	assert.NotEqual(t, first.ID(), lazy.ID())

	optional := dep()
	optional.IsOptional = true
	assert.NotEqual(t, first.ID(), optional.ID(), "an optional import must not merge with a required one")
}

func TestDependency_ResolveDir(t *testing.T) {
	dep := &domain.Dependency{SourcePath: "/project/src/index.js"}
	assert.Equal(t, "/project/src", dep.ResolveDir())

	dep.ResolveFrom = "/project"
	assert.Equal(t, "/project", dep.ResolveDir())
}

func TestNewAssetID(t *testing.T) {
	params := domain.AssetIDParams{
		EnvID:    "env",
		FilePath: "/project/src/index.js",
		FileType: "js",
	}

	assert.Equal(t, domain.NewAssetID(params), domain.NewAssetID(params))

	withQuery := params
	withQuery.Query = "raw"
	assert.NotEqual(t, domain.NewAssetID(params), domain.NewAssetID(withQuery))

	inline := params
	inline.Code = []byte("export default 1")
	assert.NotEqual(t, domain.NewAssetID(params), domain.NewAssetID(inline))

	emptyInline := params
	emptyInline.Code = []byte{}
	assert.NotEqual(t, domain.NewAssetID(params), domain.NewAssetID(emptyInline))
}

func TestAsset_IDParamsOnlyHashesVirtualCode(t *testing.T) {
	env := domain.InternEnvironment(domain.DefaultEnvironment())
	asset := &domain.Asset{
		FilePath: "/project/a.js",
		FileType: domain.NewInternedString("js"),
		Env:      env,
		Code:     []byte("console.log(1)"),
	}
	assert.Nil(t, asset.IDParams().Code)

	asset.IsVirtual = true
	assert.Equal(t, []byte("console.log(1)"), asset.IDParams().Code)
}

func TestFileTypeOf(t *testing.T) {
	assert.Equal(t, "tsx", domain.FileTypeOf("/a/b/c.tsx"))
	assert.Empty(t, domain.FileTypeOf("/a/Makefile"))
}

func TestDiagnosticError(t *testing.T) {
	err := domain.NewDiagnosticError(domain.ErrResolutionFailed,
		domain.Diagnostic{Severity: domain.SeverityError, Message: "cannot find ./a.js", Origin: "strata-resolver-default"},
		domain.Diagnostic{Severity: domain.SeverityError, Message: "cannot find ./b.js"},
	)

	require.ErrorIs(t, err, domain.ErrResolutionFailed)
	assert.Contains(t, err.Error(), "strata-resolver-default: cannot find ./a.js")
	assert.Contains(t, err.Error(), "cannot find ./b.js")

	wrapped := zerr.Wrap(err, domain.ErrBuildFailed.Error())
	diags := domain.DiagnosticsOf(wrapped, "build")
	assert.Len(t, diags, 2)
}

func TestDiagnosticsOf_PlainError(t *testing.T) {
	diags := domain.DiagnosticsOf(errors.New("boom"), "strata-transformer-js")

	require.Len(t, diags, 1)
	assert.Equal(t, "strata-transformer-js", diags[0].Origin)
	assert.Equal(t, "boom", diags[0].Message)
	assert.True(t, domain.HasErrors(diags))
	assert.Nil(t, domain.DiagnosticsOf(nil, "x"))
}

func TestHasErrors(t *testing.T) {
	assert.False(t, domain.HasErrors([]domain.Diagnostic{{Severity: domain.SeverityInfo}}))
	assert.True(t, domain.HasErrors([]domain.Diagnostic{{Severity: domain.SeverityInfo}, {Severity: domain.SeverityError}}))
}

func TestPluginConfig_TransformersFor(t *testing.T) {
	js := domain.PluginNode{PackageName: "strata-transformer-js"}
	raw := domain.PluginNode{PackageName: "strata-transformer-raw"}
	inline := domain.PluginNode{PackageName: "strata-transformer-inline"}

	cfg := &domain.PluginConfig{
		Transformers: []domain.GlobPipeline{
			{Glob: "inline:*.svg", Plugins: []domain.PluginNode{inline}},
			{Glob: "*.{js,ts}", Plugins: []domain.PluginNode{js}},
			{Glob: "*", Plugins: []domain.PluginNode{raw}},
		},
	}

	assert.Equal(t, []domain.PluginNode{js}, cfg.TransformersFor("/p/src/a.ts", ""))
	assert.Equal(t, []domain.PluginNode{raw}, cfg.TransformersFor("/p/logo.svg", ""))
	assert.Equal(t, []domain.PluginNode{inline}, cfg.TransformersFor("/p/logo.svg", "inline"))
	assert.Equal(t, []domain.PluginNode{js}, cfg.TransformersFor("/p/a.js", "inline"))
}

func TestPluginConfig_IDChangesWithPlugins(t *testing.T) {
	a := &domain.PluginConfig{Resolvers: []domain.PluginNode{{PackageName: "r1"}}}
	b := &domain.PluginConfig{Resolvers: []domain.PluginNode{{PackageName: "r2"}}}

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestCacheStats_Sub(t *testing.T) {
	now := domain.CacheStats{Hits: 10, Misses: 4, Bailouts: 1, Errors: 2}
	prev := domain.CacheStats{Hits: 3, Misses: 4}

	assert.Equal(t, domain.CacheStats{Hits: 7, Bailouts: 1, Errors: 2}, now.Sub(prev))
	assert.Equal(t, "hits=10 misses=4 bailouts=1 errors=2", now.String())
}
