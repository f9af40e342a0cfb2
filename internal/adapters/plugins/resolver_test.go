package plugins_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/fs"
	"go.trai.ch/strata/internal/adapters/packagemanager"
	"go.trai.ch/strata/internal/adapters/plugins"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

func write(t *testing.T, mem *fs.FileSystem, path, content string) {
	t.Helper()
	require.NoError(t, mem.WriteFile(filepath.FromSlash(path), []byte(content)))
}

func newResolver(t *testing.T) (*plugins.Resolver, *fs.FileSystem) {
	t.Helper()

	mem := fs.NewMemory()
	write(t, mem, "/p/src/index.js", "")
	write(t, mem, "/p/src/util.ts", "")
	write(t, mem, "/p/src/lib/index.js", "")
	write(t, mem, "/p/node_modules/pkg/package.json", `{"main": "lib/main"}`)
	write(t, mem, "/p/node_modules/pkg/lib/main.js", "")
	return plugins.NewResolver(mem, packagemanager.New(mem)), mem
}

func dep(specifier string, ctx domain.EnvironmentContext) *domain.Dependency {
	env := domain.DefaultEnvironment()
	env.Context = ctx
	return &domain.Dependency{
		Specifier:     specifier,
		SpecifierType: domain.SpecifierESM,
		SourcePath:    filepath.FromSlash("/p/src/index.js"),
		Priority:      domain.PrioritySync,
		Env:           domain.InternEnvironment(env),
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t)

	tests := []struct {
		name      string
		specifier string
		want      string
		query     string
	}{
		{"exact file", "./util.ts", "/p/src/util.ts", ""},
		{"extension probing", "./util", "/p/src/util.ts", ""},
		{"directory index", "./lib", "/p/src/lib/index.js", ""},
		{"parent directory", "../src/lib/index.js", "/p/src/lib/index.js", ""},
		{"absolute", "/p/src/util.ts", "/p/src/util.ts", ""},
		{"query string", "./util?raw", "/p/src/util.ts", "raw"},
		{"bare specifier", "pkg", "/p/node_modules/pkg/lib/main.js", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := r.Resolve(context.Background(), dep(tt.specifier, domain.ContextBrowser))
			require.NoError(t, err)
			assert.Equal(t, ports.Resolved, res.Kind)
			assert.Equal(t, filepath.FromSlash(tt.want), res.FilePath)
			assert.Equal(t, tt.query, res.Query)
			assert.True(t, res.SideEffects)
		})
	}
}

func TestResolver_RecordsProbedCandidates(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t)

	res, err := r.Resolve(context.Background(), dep("./util", domain.ContextBrowser))
	require.NoError(t, err)

	base := filepath.FromSlash("/p/src/util")
	assert.Equal(t, []string{base, base + ".js", base + ".mjs", base + ".cjs", base + ".jsx", base + ".ts"},
		res.InvalidateOnFileChange)
}

func TestResolver_Missing(t *testing.T) {
	t.Parallel()

	r, mem := newResolver(t)

	res, err := r.Resolve(context.Background(), dep("./missing", domain.ContextBrowser))
	require.NoError(t, err)
	assert.Equal(t, ports.Unresolved, res.Kind)
	assert.Len(t, res.InvalidateOnFileChange, 1+2*len(plugins.Extensions))

	// Creating a probed candidate makes the same dependency resolve.
	write(t, mem, "/p/src/missing.jsx", "")
	res, err = r.Resolve(context.Background(), dep("./missing", domain.ContextBrowser))
	require.NoError(t, err)
	assert.Equal(t, ports.Resolved, res.Kind)
	assert.Contains(t, res.InvalidateOnFileChange, filepath.FromSlash("/p/src/missing.jsx"))

	res, err = r.Resolve(context.Background(), dep("not-installed", domain.ContextBrowser))
	require.NoError(t, err)
	assert.Equal(t, ports.Unresolved, res.Kind)
	assert.NotEmpty(t, res.InvalidateOnFileChange)
}

func TestResolver_Builtins(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t)
	ctx := context.Background()

	for _, specifier := range []string{"fs", "node:path", "fs/promises"} {
		res, err := r.Resolve(ctx, dep(specifier, domain.ContextNode))
		require.NoError(t, err)
		assert.Equal(t, ports.Excluded, res.Kind, specifier)
	}

	res, err := r.Resolve(ctx, dep("fs", domain.ContextBrowser))
	require.NoError(t, err)
	assert.Equal(t, ports.Unresolved, res.Kind)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.SeverityWarning, res.Diagnostics[0].Severity)
	assert.Contains(t, res.Diagnostics[0].Message, `"fs"`)
}

func TestResolver_ExcludesURLs(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t)

	for _, specifier := range []string{"https://cdn.example.com/x.js", "data:text/javascript,1", "//cdn/x.js"} {
		res, err := r.Resolve(context.Background(), dep(specifier, domain.ContextBrowser))
		require.NoError(t, err)
		assert.Equal(t, ports.Excluded, res.Kind, specifier)
	}
}

func TestResolver_ExcludesNodeModulesWhenDisabled(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t)

	env := domain.DefaultEnvironment()
	env.Context = domain.ContextNode
	env.IncludeNodeModules = false
	d := dep("pkg", domain.ContextNode)
	d.Env = domain.InternEnvironment(env)

	res, err := r.Resolve(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, ports.Excluded, res.Kind)
}
