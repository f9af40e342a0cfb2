package domain

import (
	"errors"
	"strings"
)

// Severity is the level of a diagnostic.
type Severity string

const (
	// SeverityError fails the build.
	SeverityError Severity = "error"
	// SeverityWarning is reported but does not fail the build.
	SeverityWarning Severity = "warning"
	// SeverityInfo is informational, e.g. a deferred optional dependency.
	SeverityInfo Severity = "info"
)

// CodeHighlight marks a span inside a code frame.
type CodeHighlight struct {
	Start   Position `cbor:"start" json:"start"`
	End     Position `cbor:"end" json:"end"`
	Message string   `cbor:"message,omitempty" json:"message,omitempty"`
}

// CodeFrame is an excerpt of a source file with highlighted spans.
type CodeFrame struct {
	FilePath   string          `cbor:"filePath" json:"filePath"`
	Language   string          `cbor:"language,omitempty" json:"language,omitempty"`
	Code       string          `cbor:"code,omitempty" json:"code,omitempty"`
	Highlights []CodeHighlight `cbor:"highlights,omitempty" json:"highlights,omitempty"`
}

// Diagnostic is a structured, user-facing problem report.
type Diagnostic struct {
	Severity         Severity          `cbor:"severity" json:"severity"`
	Message          string            `cbor:"message" json:"message"`
	Origin           string            `cbor:"origin,omitempty" json:"origin,omitempty"`
	CodeFrames       []CodeFrame       `cbor:"codeFrames,omitempty" json:"codeFrames,omitempty"`
	Hints            []string          `cbor:"hints,omitempty" json:"hints,omitempty"`
	DocumentationURL string            `cbor:"documentationUrl,omitempty" json:"documentationUrl,omitempty"`
	Meta             map[string]string `cbor:"meta,omitempty" json:"meta,omitempty"`
}

// DiagnosticError carries every diagnostic collected for a failure.
// Kind is the sentinel the error unwraps to.
type DiagnosticError struct {
	Kind        error
	Diagnostics []Diagnostic
}

// NewDiagnosticError creates a DiagnosticError of the given kind.
func NewDiagnosticError(kind error, diags ...Diagnostic) *DiagnosticError {
	return &DiagnosticError{Kind: kind, Diagnostics: diags}
}

// Error joins the diagnostic messages.
func (e *DiagnosticError) Error() string {
	if len(e.Diagnostics) == 0 {
		return e.Kind.Error()
	}

	lines := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		if d.Origin != "" {
			lines = append(lines, d.Origin+": "+d.Message)
			continue
		}
		lines = append(lines, d.Message)
	}
	return e.Kind.Error() + ":\n" + strings.Join(lines, "\n")
}

// Unwrap returns the kind sentinel.
func (e *DiagnosticError) Unwrap() error {
	return e.Kind
}

// DiagnosticsOf extracts diagnostics from err. Errors without attached diagnostics
// become a single diagnostic attributed to origin.
func DiagnosticsOf(err error, origin string) []Diagnostic {
	if err == nil {
		return nil
	}

	var de *DiagnosticError
	if errors.As(err, &de) {
		return de.Diagnostics
	}

	return []Diagnostic{{
		Severity: SeverityError,
		Message:  err.Error(),
		Origin:   origin,
	}}
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError || d.Severity == "" {
			return true
		}
	}
	return false
}
