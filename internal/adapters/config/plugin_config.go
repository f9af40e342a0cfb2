package config

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// spread splices the inherited list into a derived one.
const spread = "..."

var _ ports.PluginConfigLoader = (*PluginConfigLoader)(nil)

// PluginConfigLoader implements ports.PluginConfigLoader for .stratarc files.
type PluginConfigLoader struct {
	fs ports.FileSystem
	pm ports.PackageManager
}

// NewPluginConfigLoader creates a loader resolving bare extends through pm.
func NewPluginConfigLoader(fsys ports.FileSystem, pm ports.PackageManager) *PluginConfigLoader {
	return &PluginConfigLoader{fs: fsys, pm: pm}
}

// rawConfig is one config file before its extends chain is merged.
type rawConfig struct {
	path    string
	extends []string
	lists   map[string][]domain.PluginNode
	globs   map[string][]domain.GlobPipeline
	bundler *domain.PluginNode
}

var (
	listKeys = []string{"resolvers", "namers", "runtimes", "reporters"}
	globKeys = []string{"transformers", "packagers", "optimizers", "compressors", "validators"}
)

// Load finds .stratarc (JSONC) or .stratarc.yaml in projectRoot, falling back
// to the built-in default config, and merges its extends chain.
func (l *PluginConfigLoader) Load(ctx context.Context, projectRoot string) (*domain.PluginConfig, []string, error) {
	candidates := []string{
		filepath.Join(projectRoot, domain.PluginConfigFileName),
		filepath.Join(projectRoot, domain.PluginConfigYAMLFileName),
	}
	consulted := slices.Clone(candidates)

	path := ""
	for _, c := range candidates {
		if l.fs.IsFile(c) {
			path = c
			break
		}
	}

	var (
		merged *rawConfig
		err    error
	)
	if path == "" {
		merged, err = defaultConfig(projectRoot)
	} else {
		merged, err = l.loadChain(ctx, path, nil, &consulted)
	}
	if err != nil {
		return nil, consulted, err
	}

	cfg := merged.toDomain()
	cfg.FilePath = path
	return cfg, consulted, nil
}

func defaultConfig(resolveFrom string) (*rawConfig, error) {
	return parseConfig(filepath.Join(resolveFrom, domain.DefaultPluginConfigName), []byte(defaultConfigSource), false)
}

func (l *PluginConfigLoader) loadChain(ctx context.Context, path string, stack []string, consulted *[]string) (*rawConfig, error) {
	if slices.Contains(stack, path) {
		return nil, zerr.Wrap(domain.ErrConfigExtendsCycle, path)
	}
	stack = append(stack, path)

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}
	cfg, err := parseConfig(path, data, isYAML(path))
	if err != nil {
		return nil, err
	}

	var base *rawConfig
	for _, ext := range cfg.extends {
		parent, err := l.loadExtends(ctx, ext, path, stack, consulted)
		if err != nil {
			return nil, err
		}
		if base == nil {
			base = parent
		} else {
			base = merge(base, parent)
		}
	}
	if base == nil {
		return cfg, nil
	}
	return merge(base, cfg), nil
}

func (l *PluginConfigLoader) loadExtends(
	ctx context.Context,
	ext, from string,
	stack []string,
	consulted *[]string,
) (*rawConfig, error) {
	if ext == domain.DefaultPluginConfigName {
		return defaultConfig(filepath.Dir(from))
	}

	var target string
	switch {
	case strings.HasPrefix(ext, "."), filepath.IsAbs(ext):
		target = ext
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(from), ext)
		}
	default:
		dep, err := l.pm.ResolveDevDependency(ctx, ext, filepath.Dir(from))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigExtendsNotFound, ext), "reason", err.Error())
		}
		target = dep.FilePath
	}

	*consulted = append(*consulted, target)
	if !l.fs.IsFile(target) {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigExtendsNotFound, ext), "from", from)
	}
	return l.loadChain(ctx, target, stack, consulted)
}

func isYAML(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}

// parseConfig decodes through yaml.v3 nodes so glob maps keep their
// declaration order. JSONC input is first normalized to JSON, which YAML accepts.
func parseConfig(path string, data []byte, yamlSource bool) (*rawConfig, error) {
	if !yamlSource {
		data = jsonc.ToJSON(data)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "path", path)
	}

	cfg := &rawConfig{
		path:  path,
		lists: make(map[string][]domain.PluginNode),
		globs: make(map[string][]domain.GlobPipeline),
	}
	if len(doc.Content) == 0 {
		return cfg, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, parseError(path, "top level", "expected an object")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		switch {
		case key == "$schema":
		case key == "extends":
			names, err := stringList(path, key, value)
			if err != nil {
				return nil, err
			}
			cfg.extends = names
		case key == "bundler":
			if value.Kind != yaml.ScalarNode {
				return nil, parseError(path, key, "expected a plugin name")
			}
			if value.Tag != "!!null" {
				cfg.bundler = &domain.PluginNode{PackageName: value.Value, ResolveFrom: path}
			}
		case slices.Contains(listKeys, key):
			names, err := stringList(path, key, value)
			if err != nil {
				return nil, err
			}
			cfg.lists[key] = nodes(names, path)
		case slices.Contains(globKeys, key):
			globs, err := globMap(path, key, value)
			if err != nil {
				return nil, err
			}
			cfg.globs[key] = globs
		default:
			return nil, parseError(path, key, "unknown field")
		}
	}
	return cfg, nil
}

func parseError(path, field, reason string) error {
	return zerr.With(zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, field+": "+reason), "path", path), "field", field)
}

// stringList accepts a single string or a list of strings.
func stringList(path, field string, n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, parseError(path, field, "expected a list of strings")
			}
			out = append(out, item.Value)
		}
		return out, nil
	default:
		return nil, parseError(path, field, "expected a string or a list of strings")
	}
}

func globMap(path, field string, n *yaml.Node) ([]domain.GlobPipeline, error) {
	if n.Kind != yaml.MappingNode {
		return nil, parseError(path, field, "expected an object of globs")
	}
	out := make([]domain.GlobPipeline, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		glob := n.Content[i].Value
		names, err := stringList(path, field+"."+glob, n.Content[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.GlobPipeline{Glob: glob, Plugins: nodes(names, path)})
	}
	return out, nil
}

func nodes(names []string, resolveFrom string) []domain.PluginNode {
	out := make([]domain.PluginNode, 0, len(names))
	for _, name := range names {
		out = append(out, domain.PluginNode{PackageName: name, ResolveFrom: resolveFrom})
	}
	return out
}

// merge layers derived over base.
func merge(base, derived *rawConfig) *rawConfig {
	out := &rawConfig{
		path:    derived.path,
		lists:   make(map[string][]domain.PluginNode),
		globs:   make(map[string][]domain.GlobPipeline),
		bundler: base.bundler,
	}
	if derived.bundler != nil {
		out.bundler = derived.bundler
	}

	for _, key := range listKeys {
		b, bok := base.lists[key]
		d, dok := derived.lists[key]
		switch {
		case dok:
			out.lists[key] = splice(b, d)
		case bok:
			out.lists[key] = b
		}
	}

	for _, key := range globKeys {
		b, d := base.globs[key], derived.globs[key]
		if b == nil && d == nil {
			continue
		}
		merged := make([]domain.GlobPipeline, 0, len(b)+len(d))
		seen := make(map[string]bool, len(d))
		for _, g := range d {
			seen[g.Glob] = true
			var inherited []domain.PluginNode
			for _, bg := range b {
				if bg.Glob == g.Glob {
					inherited = bg.Plugins
				}
			}
			merged = append(merged, domain.GlobPipeline{Glob: g.Glob, Plugins: splice(inherited, g.Plugins)})
		}
		for _, g := range b {
			if !seen[g.Glob] {
				merged = append(merged, g)
			}
		}
		out.globs[key] = merged
	}
	return out
}

// splice replaces a "..." entry in derived with base. Without one, derived wins.
func splice(base, derived []domain.PluginNode) []domain.PluginNode {
	out := make([]domain.PluginNode, 0, len(base)+len(derived))
	for _, n := range derived {
		if n.PackageName == spread {
			out = append(out, base...)
			continue
		}
		out = append(out, n)
	}
	return out
}

func (c *rawConfig) toDomain() *domain.PluginConfig {
	return &domain.PluginConfig{
		Resolvers:    withoutSpread(c.lists["resolvers"]),
		Transformers: globsWithoutSpread(c.globs["transformers"]),
		Bundler:      c.bundler,
		Namers:       withoutSpread(c.lists["namers"]),
		Runtimes:     withoutSpread(c.lists["runtimes"]),
		Packagers:    globsWithoutSpread(c.globs["packagers"]),
		Optimizers:   globsWithoutSpread(c.globs["optimizers"]),
		Compressors:  globsWithoutSpread(c.globs["compressors"]),
		Reporters:    withoutSpread(c.lists["reporters"]),
		Validators:   globsWithoutSpread(c.globs["validators"]),
	}
}

// withoutSpread drops a "..." left in a config that has nothing to inherit.
func withoutSpread(list []domain.PluginNode) []domain.PluginNode {
	return slices.DeleteFunc(slices.Clone(list), func(n domain.PluginNode) bool {
		return n.PackageName == spread
	})
}

func globsWithoutSpread(globs []domain.GlobPipeline) []domain.GlobPipeline {
	out := make([]domain.GlobPipeline, 0, len(globs))
	for _, g := range globs {
		out = append(out, domain.GlobPipeline{Glob: g.Glob, Plugins: withoutSpread(g.Plugins)})
	}
	return out
}
