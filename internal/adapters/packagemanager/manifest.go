package packagemanager

import (
	"encoding/json"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// Manifest is the subset of package.json the build reads.
type Manifest struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Main         string            `json:"main"`
	Module       string            `json:"module"`
	Browser      json.RawMessage   `json:"browser"`
	Exports      json.RawMessage   `json:"exports"`
	Source       json.RawMessage   `json:"source"`
	Browserslist json.RawMessage   `json:"browserslist"`
	Engines      map[string]string `json:"engines"`
	SideEffects  json.RawMessage   `json:"sideEffects"`
	Targets      map[string]struct {
		Source json.RawMessage `json:"source"`
	} `json:"targets"`
}

// ReadManifest parses the package.json at path.
func ReadManifest(fsys ports.FileSystem, path string) (*Manifest, []byte, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	m, err := ParseManifest(data, path)
	if err != nil {
		return nil, nil, err
	}
	return m, data, nil
}

// ParseManifest decodes package.json content read from path.
func ParseManifest(data []byte, path string) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrPackageJSONInvalid, err.Error()), "path", path)
	}
	return &m, nil
}

// Sources returns the entries named by the "source" field, which may be a string or a list.
func (m *Manifest) Sources() []string {
	return stringOrList(m.Source)
}

// TargetSources returns the per-target "source" fields, keyed by target name.
func (m *Manifest) TargetSources() map[string][]string {
	out := make(map[string][]string, len(m.Targets))
	for name, t := range m.Targets {
		if sources := stringOrList(t.Source); len(sources) > 0 {
			out[name] = sources
		}
	}
	return out
}

// BrowserTargets returns the browserslist queries, which may be a string or a list.
func (m *Manifest) BrowserTargets() []string {
	return stringOrList(m.Browserslist)
}

// conditionOrder is the preference among export conditions.
var conditionOrder = []string{"import", "module", "browser", "default", "require"}

// EntryPoint returns the file a bare import of the package loads.
func (m *Manifest) EntryPoint() string {
	if entry := exportTarget(m.Exports, "."); entry != "" {
		return entry
	}
	if m.Module != "" {
		return m.Module
	}
	if m.Main != "" {
		return m.Main
	}
	return "index.js"
}

// Subpath returns the exports mapping for "./sub", or "" when exports do not name it.
func (m *Manifest) Subpath(sub string) string {
	return exportTarget(m.Exports, "./"+sub)
}

func exportTarget(raw json.RawMessage, key string) string {
	if len(raw) == 0 {
		return ""
	}

	var direct string
	if err := json.Unmarshal(raw, &direct); err == nil {
		if key == "." {
			return direct
		}
		return ""
	}

	var table map[string]json.RawMessage
	if err := json.Unmarshal(raw, &table); err != nil {
		return ""
	}
	if entry, ok := table[key]; ok {
		return conditionTarget(entry)
	}
	if key == "." {
		// A conditions object without subpaths applies to ".".
		return conditionTarget(raw)
	}
	return ""
}

func conditionTarget(raw json.RawMessage) string {
	var direct string
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct
	}

	var conditions map[string]json.RawMessage
	if err := json.Unmarshal(raw, &conditions); err != nil {
		return ""
	}
	for _, c := range conditionOrder {
		if v, ok := conditions[c]; ok {
			if target := conditionTarget(v); target != "" {
				return target
			}
		}
	}
	return ""
}

func stringOrList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}
