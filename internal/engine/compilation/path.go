package compilation

import (
	"context"
	"fmt"
	"path/filepath"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/pipeline"
	"go.trai.ch/strata/internal/engine/requestgraph"
)

// PathResult is the winning resolution of a dependency and the resolver that produced it.
type PathResult struct {
	ports.Resolution
	Resolver string
}

// PathRequest resolves one dependency through the resolver pipeline.
// An unresolved required dependency fails; an unresolved optional one is returned as is.
type PathRequest struct {
	c   *Compilation
	dep *domain.Dependency
}

// Key identifies the request by dependency identity.
func (r PathRequest) Key() string {
	return "path:" + string(r.dep.ID())
}

// Kind returns "path".
func (PathRequest) Kind() string {
	return "path"
}

// Run resolves the dependency. Every candidate a resolver looked at becomes an input.
func (r PathRequest) Run(ctx context.Context, rc *requestgraph.RunContext) (PathResult, error) {
	res, by, err := r.c.pipelines.Resolve(ctx, r.dep)
	if err != nil {
		return PathResult{}, err
	}
	rc.InvalidateOnFileChange(res.InvalidateOnFileChange...)

	if res.Kind == ports.Unresolved && !r.dep.IsOptional {
		return PathResult{}, domain.NewDiagnosticError(domain.ErrResolutionFailed,
			append([]domain.Diagnostic{r.unresolved()}, res.Diagnostics...)...)
	}
	return PathResult{Resolution: res, Resolver: by}, nil
}

func (r PathRequest) unresolved() domain.Diagnostic {
	d := domain.Diagnostic{
		Severity: domain.SeverityError,
		Message:  fmt.Sprintf("failed to resolve '%s'%s", r.dep.Specifier, r.from()),
		Origin:   Origin,
	}
	if frame, ok := pipeline.DependencyFrame(r.dep); ok {
		d.CodeFrames = []domain.CodeFrame{frame}
	}
	return d
}

func (r PathRequest) from() string {
	if r.dep.SourcePath == "" {
		return ""
	}
	rel, err := filepath.Rel(r.c.root, r.dep.SourcePath)
	if err != nil {
		rel = r.dep.SourcePath
	}
	return fmt.Sprintf(" from '%s'", filepath.ToSlash(rel))
}

func deferredDiagnostic(dep *domain.Dependency) domain.Diagnostic {
	d := domain.Diagnostic{
		Severity: domain.SeverityInfo,
		Message:  fmt.Sprintf("optional dependency '%s' could not be resolved and was deferred", dep.Specifier),
		Origin:   Origin,
	}
	if frame, ok := pipeline.DependencyFrame(dep); ok {
		d.CodeFrames = []domain.CodeFrame{frame}
	}
	return d
}
