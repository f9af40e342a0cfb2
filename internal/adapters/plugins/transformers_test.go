package plugins_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/plugins"
	"go.trai.ch/strata/internal/core/domain"
)

func asset(path, code string) *domain.Asset {
	return &domain.Asset{
		ID:       "asset",
		FilePath: path,
		FileType: domain.NewInternedString(domain.FileTypeOf(path)),
		Env:      domain.InternEnvironment(domain.DefaultEnvironment()),
		Code:     []byte(code),
		IsSource: true,
	}
}

func specifiers(deps []*domain.Dependency) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		out = append(out, d.Specifier)
	}
	return out
}

func TestJSTransformer_Dependencies(t *testing.T) {
	t.Parallel()

	src := "import { a } from './a.js';\n" +
		"import './side-effect.js';\n" +
		"export { b } from './b.js';\n" +
		"const c = require('./c.js');\n" +
		"export const lazy = () => import('./lazy.js');\n" +
		"export const sum = a + c;\n"

	res, err := plugins.JSTransformer{}.Transform(context.Background(), asset("/p/src/index.js", src))
	require.NoError(t, err)

	assert.Equal(t, []string{"./a.js", "./side-effect.js", "./b.js", "./c.js", "./lazy.js"}, specifiers(res.Dependencies))

	byName := map[string]*domain.Dependency{}
	for _, d := range res.Dependencies {
		byName[d.Specifier] = d
	}
	assert.Equal(t, domain.SpecifierESM, byName["./a.js"].SpecifierType)
	assert.Equal(t, domain.SpecifierCommonJS, byName["./c.js"].SpecifierType)
	assert.Equal(t, domain.PriorityLazy, byName["./lazy.js"].Priority)
	assert.Equal(t, domain.PrioritySync, byName["./b.js"].Priority)

	loc := byName["./a.js"].Loc
	require.NotNil(t, loc)
	assert.Equal(t, "/p/src/index.js", loc.FilePath)
	assert.Equal(t, domain.Position{Line: 1, Column: 20}, loc.Start)

	assert.Equal(t, domain.Position{Line: 4, Column: 20}, byName["./c.js"].Loc.Start)

	assert.Equal(t, "js", res.Asset.FileType.String())
	assert.Equal(t, domain.AssetID("asset"), res.Asset.ID)
	assert.Equal(t, len(res.Asset.Code), res.Asset.Stats.Size)

	var exported []string
	for _, s := range res.Asset.Symbols {
		exported = append(exported, s.Exported)
	}
	assert.Equal(t, []string{"lazy", "sum"}, exported)
}

func TestJSTransformer_DeduplicatesImports(t *testing.T) {
	t.Parallel()

	src := "import { a } from './a.js';\nimport { b } from './a.js';\nconsole.log(a, b);\n"

	res, err := plugins.JSTransformer{}.Transform(context.Background(), asset("/p/index.js", src))
	require.NoError(t, err)
	assert.Equal(t, []string{"./a.js"}, specifiers(res.Dependencies))
}

func TestJSTransformer_IgnoresImportsInStringsAndComments(t *testing.T) {
	t.Parallel()

	src := "import { a } from './a.js';\n" +
		"const s = \"require('./in-string.js')\";\n" +
		"const tpl = `import('./in-template.js')`;\n" +
		"// const c = require('./in-comment.js');\n" +
		"/* import './in-block.js'; */\n" +
		"export const lazy = () => import('./lazy.js');\n" +
		"console.log(a, s, tpl);\n"

	res, err := plugins.JSTransformer{}.Transform(context.Background(), asset("/p/index.js", src))
	require.NoError(t, err)

	assert.Equal(t, []string{"./a.js", "./lazy.js"}, specifiers(res.Dependencies))
	assert.Equal(t, domain.PriorityLazy, res.Dependencies[1].Priority)
	assert.Equal(t, domain.Position{Line: 6, Column: 35}, res.Dependencies[1].Loc.Start)
}

func TestJSTransformer_TypeScript(t *testing.T) {
	t.Parallel()

	src := "import type { T } from './types';\n" +
		"import { v } from './v';\n" +
		"export const y: T = v;\n"

	res, err := plugins.JSTransformer{}.Transform(context.Background(), asset("/p/index.ts", src))
	require.NoError(t, err)

	assert.Equal(t, []string{"./v"}, specifiers(res.Dependencies))
	assert.Equal(t, "js", res.Asset.FileType.String())
	assert.NotContains(t, string(res.Asset.Code), ": T")
	assert.Equal(t, domain.Position{Line: 2, Column: 20}, res.Dependencies[0].Loc.Start)
}

func TestJSTransformer_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := plugins.JSTransformer{}.Transform(context.Background(), asset("/p/broken.js", "const ok = 1;\nconst = ;\n"))
	require.ErrorIs(t, err, domain.ErrTransformFailed)

	diags := domain.DiagnosticsOf(err, "")
	require.NotEmpty(t, diags)
	assert.Equal(t, plugins.JSTransformerName, diags[0].Origin)
	require.Len(t, diags[0].CodeFrames, 1)
	assert.Equal(t, "/p/broken.js", diags[0].CodeFrames[0].FilePath)
	assert.Equal(t, 2, diags[0].CodeFrames[0].Highlights[0].Start.Line)
}

func TestJSONTransformer(t *testing.T) {
	t.Parallel()

	src := "{\n  // comment\n  \"a\": [1, 2,],\n}\n"

	res, err := plugins.JSONTransformer{}.Transform(context.Background(), asset("/p/data.json", src))
	require.NoError(t, err)
	assert.Equal(t, "export default {\"a\":[1,2]};\n", string(res.Asset.Code))
	assert.Equal(t, "js", res.Asset.FileType.String())
	assert.Empty(t, res.Dependencies)
}

func TestJSONTransformer_SyntaxError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		line int
	}{
		{name: "plain", src: "{\n  \"a\": }\n", line: 2},
		{name: "after comments", src: "// settings\n/* block\n   comment */\n{\n  \"a\": 1,\n  \"b\": }\n", line: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := plugins.JSONTransformer{}.Transform(context.Background(), asset("/p/data.json", tt.src))
			require.ErrorIs(t, err, domain.ErrTransformFailed)

			diags := domain.DiagnosticsOf(err, "")
			require.Len(t, diags, 1)
			require.Len(t, diags[0].CodeFrames, 1)
			assert.Equal(t, tt.line, diags[0].CodeFrames[0].Highlights[0].Start.Line)
		})
	}
}

func TestCSSTransformer(t *testing.T) {
	t.Parallel()

	src := "@import './base.css';\n" +
		".a { background: url(\"./img.png\"); }\n" +
		".b { background: url(data:image/png;base64,AAAA); }\n" +
		".c { background: url(https://cdn.example.com/x.png); }\n"

	res, err := plugins.CSSTransformer{}.Transform(context.Background(), asset("/p/style.css", src))
	require.NoError(t, err)

	require.Equal(t, []string{"./base.css", "./img.png"}, specifiers(res.Dependencies))
	assert.Equal(t, domain.SpecifierESM, res.Dependencies[0].SpecifierType)
	assert.Equal(t, domain.SpecifierURL, res.Dependencies[1].SpecifierType)
	assert.True(t, res.Dependencies[1].NeedsStableName)
	assert.Equal(t, 2, res.Dependencies[1].Loc.Start.Line)
	assert.Equal(t, "css", res.Asset.FileType.String())
}

func TestRawTransformer(t *testing.T) {
	t.Parallel()

	in := asset("/p/logo.svg", "<svg/>")
	res, err := plugins.RawTransformer{}.Transform(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in.Code, res.Asset.Code)
	assert.Equal(t, 6, res.Asset.Stats.Size)
	assert.NotSame(t, in, res.Asset)
}
