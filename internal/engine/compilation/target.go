package compilation

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/strata/internal/adapters/packagemanager"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/requestgraph"
)

// DefaultTargetName names the target used when none is configured.
const DefaultTargetName = "default"

// TargetRequest produces the targets an entry is built for.
// With an empty name every configured target is returned.
type TargetRequest struct {
	c    *Compilation
	name string
}

// Key identifies the request by target name.
func (r TargetRequest) Key() string {
	if r.name == "" {
		return "target:*"
	}
	return "target:" + r.name
}

// Kind returns "target".
func (TargetRequest) Kind() string {
	return "target"
}

// Run builds the targets. Engines come from the project package.json and the target options.
func (r TargetRequest) Run(_ context.Context, rc *requestgraph.RunContext) ([]*domain.Target, error) {
	manifest, err := r.manifest(rc)
	if err != nil {
		return nil, err
	}

	configured := r.c.options.Targets
	if len(configured) == 0 {
		configured = map[string]domain.TargetOptions{DefaultTargetName: {}}
	}

	names := slices.Sorted(maps.Keys(configured))
	if r.name != "" {
		if _, ok := configured[r.name]; !ok {
			return nil, domain.NewDiagnosticError(domain.ErrUnknownTarget, domain.Diagnostic{
				Severity: domain.SeverityError,
				Message:  fmt.Sprintf("unknown target %q", r.name),
				Origin:   Origin,
				Hints:    []string{"configured targets: " + strings.Join(names, ", ")},
			})
		}
		names = []string{r.name}
	}

	targets := make([]*domain.Target, 0, len(names))
	for _, name := range names {
		targets = append(targets, r.c.target(name, configured[name], manifest))
	}
	return targets, nil
}

func (r TargetRequest) manifest(rc *requestgraph.RunContext) (*packagemanager.Manifest, error) {
	path := filepath.Join(r.c.root, domain.PackageJSONFileName)
	data, err := rc.ReadFile(path)
	if err != nil {
		// A project without package.json gets default engines.
		return nil, nil //nolint:nilerr // absence is not an error
	}
	manifest, err := packagemanager.ParseManifest(data, path)
	if err != nil {
		return nil, domain.NewDiagnosticError(domain.ErrPackageJSONInvalid, domain.Diagnostic{
			Severity:   domain.SeverityError,
			Message:    err.Error(),
			Origin:     Origin,
			CodeFrames: []domain.CodeFrame{{FilePath: path}},
		})
	}
	return manifest, nil
}

func (c *Compilation) target(name string, opts domain.TargetOptions, manifest *packagemanager.Manifest) *domain.Target {
	env := domain.DefaultEnvironment()
	if opts.Context != "" {
		env.Context = opts.Context
	}
	switch {
	case opts.OutputFormat != "":
		env.OutputFormat = opts.OutputFormat
	case env.IsNode() && !env.IsBrowser():
		env.OutputFormat = domain.FormatCommonJS
	}
	env.IsLibrary = opts.IsLibrary
	env.SourceMap = opts.SourceMap
	env.IncludeNodeModules = env.IsBrowser() && !opts.IsLibrary

	production := c.options.Mode == domain.ModeProduction
	env.ShouldOptimize = production
	env.ShouldScopeHoist = production

	engines := make(map[string]string)
	if manifest != nil {
		if queries := manifest.BrowserTargets(); len(queries) > 0 && env.IsBrowser() {
			engines["browsers"] = strings.Join(queries, ", ")
		}
		if node := manifest.Engines["node"]; node != "" && env.IsNode() {
			engines["node"] = node
		}
	}
	maps.Copy(engines, opts.Engines)
	if len(engines) > 0 {
		env.Engines = engines
	}

	distDir := opts.DistDir
	if distDir == "" {
		distDir = domain.DefaultDistDir
		if name != DefaultTargetName {
			distDir = filepath.Join(domain.DefaultDistDir, name)
		}
	}

	return &domain.Target{
		Name:    name,
		DistDir: c.abs(distDir),
		Env:     domain.InternEnvironment(env),
	}
}

// DistDirs returns the output directory of every target.
func (c *Compilation) DistDirs() []string {
	configured := c.options.Targets
	if len(configured) == 0 {
		configured = map[string]domain.TargetOptions{DefaultTargetName: {}}
	}
	dirs := make([]string, 0, len(configured))
	for _, name := range slices.Sorted(maps.Keys(configured)) {
		dirs = append(dirs, c.target(name, configured[name], nil).DistDir)
	}
	return dirs
}
