package compilation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/strata/internal/adapters/packagemanager"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/requestgraph"
)

// EntryRequest expands one entry specifier into entry files.
// A specifier is a file, a doublestar glob, or a directory whose package.json names its sources.
type EntryRequest struct {
	c         *Compilation
	specifier string
}

// Key identifies the request by its specifier.
func (r EntryRequest) Key() string {
	return "entry:" + r.specifier
}

// Kind returns "entry".
func (EntryRequest) Kind() string {
	return "entry"
}

// Run expands the specifier.
func (r EntryRequest) Run(_ context.Context, rc *requestgraph.RunContext) ([]domain.Entry, error) {
	if strings.ContainsAny(r.specifier, "*?[{") {
		return r.glob(rc)
	}

	path := r.c.abs(r.specifier)
	rc.InvalidateOnFileChange(path)

	fsys := rc.FileSystem()
	switch {
	case fsys.IsFile(path):
		return []domain.Entry{{FilePath: path}}, nil
	case fsys.IsDir(path):
		return r.directory(rc, path)
	default:
		return nil, r.notFound(fmt.Sprintf("entry %s does not exist", r.specifier))
	}
}

func (r EntryRequest) glob(rc *requestgraph.RunContext) ([]domain.Entry, error) {
	rel, err := filepath.Rel(r.c.root, r.c.abs(r.specifier))
	if err != nil || !r.c.within(filepath.Join(r.c.root, rel)) {
		return nil, r.notFound(fmt.Sprintf("entry glob %s is outside the project root", r.specifier))
	}

	pattern := filepath.ToSlash(rel)
	base, _ := doublestar.SplitPattern(pattern)
	rc.InvalidateOnFileChange(filepath.Join(r.c.root, filepath.FromSlash(base)))

	matches, err := rc.FileSystem().Glob(r.c.root, pattern)
	if err != nil {
		return nil, domain.NewDiagnosticError(domain.ErrInvalidGlob, domain.Diagnostic{
			Severity: domain.SeverityError,
			Message:  err.Error(),
			Origin:   Origin,
		})
	}

	var entries []domain.Entry
	for _, m := range matches {
		if rc.FileSystem().IsFile(m) {
			entries = append(entries, domain.Entry{FilePath: m})
		}
	}
	if len(entries) == 0 {
		return nil, r.notFound(fmt.Sprintf("entry glob %s matched no files", r.specifier))
	}
	return entries, nil
}

func (r EntryRequest) directory(rc *requestgraph.RunContext, dir string) ([]domain.Entry, error) {
	manifestPath := filepath.Join(dir, domain.PackageJSONFileName)
	data, err := rc.ReadFile(manifestPath)
	if err != nil {
		return nil, r.sourceMissing(dir, manifestPath)
	}
	manifest, err := packagemanager.ParseManifest(data, manifestPath)
	if err != nil {
		return nil, domain.NewDiagnosticError(domain.ErrPackageJSONInvalid, domain.Diagnostic{
			Severity:   domain.SeverityError,
			Message:    err.Error(),
			Origin:     Origin,
			CodeFrames: []domain.CodeFrame{{FilePath: manifestPath}},
		})
	}

	var entries []domain.Entry
	for _, source := range manifest.Sources() {
		entries = append(entries, domain.Entry{FilePath: filepath.Join(dir, filepath.FromSlash(source))})
	}
	for name, sources := range manifest.TargetSources() {
		for _, source := range sources {
			entries = append(entries, domain.Entry{FilePath: filepath.Join(dir, filepath.FromSlash(source)), Target: name})
		}
	}
	if len(entries) == 0 {
		return nil, r.sourceMissing(dir, manifestPath)
	}

	var diags []domain.Diagnostic
	for _, e := range entries {
		rc.InvalidateOnFileChange(e.FilePath)
		if !rc.FileSystem().IsFile(e.FilePath) {
			diags = append(diags, domain.Diagnostic{
				Severity:   domain.SeverityError,
				Message:    fmt.Sprintf("source %s named in package.json does not exist", e.FilePath),
				Origin:     Origin,
				CodeFrames: []domain.CodeFrame{{FilePath: manifestPath}},
			})
		}
	}
	if len(diags) > 0 {
		return nil, domain.NewDiagnosticError(domain.ErrEntryNotFound, diags...)
	}
	return entries, nil
}

func (r EntryRequest) notFound(message string) error {
	return domain.NewDiagnosticError(domain.ErrEntryNotFound, domain.Diagnostic{
		Severity: domain.SeverityError,
		Message:  message,
		Origin:   Origin,
	})
}

func (r EntryRequest) sourceMissing(dir, manifestPath string) error {
	return domain.NewDiagnosticError(domain.ErrEntrySourceMissing, domain.Diagnostic{
		Severity:   domain.SeverityError,
		Message:    fmt.Sprintf("directory entry %s has no source", dir),
		Origin:     Origin,
		CodeFrames: []domain.CodeFrame{{FilePath: manifestPath}},
		Hints:      []string{`add a "source" field to package.json`},
	})
}
