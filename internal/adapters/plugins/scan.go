package plugins

import (
	"bytes"
	"cmp"
	"regexp"
	"slices"

	"go.trai.ch/strata/internal/core/domain"
)

var (
	cssImportRegex = regexp.MustCompile(`@import\s+(?:url\(\s*)?(['"])([^'"\n]+)['"]`)
	cssURLRegex    = regexp.MustCompile(`\burl\(\s*(['"]?)([^'")\s]+)['"]?\s*\)`)
)

// importMatch is a specifier found in source text.
type importMatch struct {
	specifier string
	kind      domain.SpecifierType
	priority  domain.Priority
	offset    int
}

func scanCSS(code []byte) []importMatch {
	var matches []importMatch
	imports := map[int]bool{}

	for _, loc := range cssImportRegex.FindAllSubmatchIndex(code, -1) {
		imports[loc[4]] = true
		matches = append(matches, importMatch{
			specifier: string(code[loc[4]:loc[5]]),
			kind:      domain.SpecifierESM,
			priority:  domain.PrioritySync,
			offset:    loc[4],
		})
	}
	for _, loc := range cssURLRegex.FindAllSubmatchIndex(code, -1) {
		if imports[loc[4]] {
			continue
		}
		specifier := string(code[loc[4]:loc[5]])
		if isURL(specifier) {
			continue
		}
		matches = append(matches, importMatch{
			specifier: specifier,
			kind:      domain.SpecifierURL,
			priority:  domain.PrioritySync,
			offset:    loc[4],
		})
	}
	sortByOffset(matches)
	return matches
}

func sortByOffset(matches []importMatch) {
	slices.SortStableFunc(matches, func(a, b importMatch) int {
		return cmp.Compare(a.offset, b.offset)
	})
}

// locate finds the quoted specifier in the original source so locations point at what the user wrote.
// The transformed offset is used when the specifier cannot be found.
func locate(original []byte, specifier string, fallback int) int {
	for _, quote := range []string{`"`, `'`, "`"} {
		if i := bytes.Index(original, []byte(quote+specifier+quote)); i >= 0 {
			return i + 1
		}
	}
	if i := bytes.Index(original, []byte(specifier)); i >= 0 {
		return i
	}
	return fallback
}

// positionAt converts a byte offset to a 1-based line and column.
func positionAt(code []byte, offset int) domain.Position {
	offset = min(max(offset, 0), len(code))
	line := bytes.Count(code[:offset], []byte("\n")) + 1
	col := offset - bytes.LastIndexByte(code[:offset], '\n')
	return domain.Position{Line: line, Column: col}
}

// sourceLocation returns the span of specifier starting at offset.
func sourceLocation(path string, code []byte, offset int, specifier string) *domain.SourceLocation {
	start := positionAt(code, offset)
	end := positionAt(code, offset+len(specifier))
	return &domain.SourceLocation{FilePath: path, Start: start, End: end}
}

// dependencies converts matches to dependencies, dropping duplicates of the same specifier, kind and priority.
func dependencies(path string, original []byte, matches []importMatch) []*domain.Dependency {
	seen := make(map[string]bool, len(matches))
	deps := make([]*domain.Dependency, 0, len(matches))
	for _, m := range matches {
		key := m.specifier + "\x00" + string(m.kind) + "\x00" + string(m.priority)
		if seen[key] {
			continue
		}
		seen[key] = true

		offset := locate(original, m.specifier, m.offset)
		deps = append(deps, &domain.Dependency{
			Specifier:       m.specifier,
			SpecifierType:   m.kind,
			Priority:        m.priority,
			NeedsStableName: m.kind == domain.SpecifierURL,
			Loc:             sourceLocation(path, original, offset, m.specifier),
		})
	}
	return deps
}
