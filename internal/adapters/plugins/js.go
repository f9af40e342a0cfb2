package plugins

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

// JSTransformerName is the package name of the JavaScript transformer.
const JSTransformerName = "strata-transformer-js"

var exportRegex = regexp.MustCompile(`(?m)^[ \t]*export\s+(?:async\s+)?(?:const|let|var|function\*?|class)\s+([A-Za-z_$][\w$]*)`)

var _ ports.TransformerPlugin = (*JSTransformer)(nil)

// JSTransformer compiles JS, JSX and TypeScript to JavaScript with esbuild and collects imports.
type JSTransformer struct{}

// Name returns the plugin package name.
func (JSTransformer) Name() string {
	return JSTransformerName
}

// Transform compiles the asset and returns its ESM, dynamic and CommonJS dependencies.
func (t JSTransformer) Transform(_ context.Context, asset *domain.Asset) (ports.TransformResult, error) {
	start := time.Now()

	result := api.Transform(string(asset.Code), api.TransformOptions{
		Loader:           loaderFor(asset.FileType.String()),
		Sourcefile:       asset.FilePath,
		Target:           api.ESNext,
		LogLevel:         api.LogLevelSilent,
		MinifyWhitespace: asset.Env != nil && asset.Env.ShouldOptimize,
		MinifySyntax:     asset.Env != nil && asset.Env.ShouldOptimize,
	})
	if len(result.Errors) > 0 {
		return ports.TransformResult{}, esbuildError(t.Name(), asset, result.Errors)
	}

	out := *asset
	out.Code = result.Code
	out.FileType = domain.NewInternedString("js")
	out.Symbols = exportedSymbols(asset)
	out.Stats = domain.AssetStats{Size: len(result.Code), DurationMS: time.Since(start).Milliseconds()}

	matches, errs := scanJS(asset)
	if len(errs) > 0 {
		return ports.TransformResult{}, esbuildError(t.Name(), asset, errs)
	}

	return ports.TransformResult{
		Asset:        &out,
		Dependencies: dependencies(asset.FilePath, asset.Code, matches),
	}, nil
}

// scanJS collects the import records esbuild parses from the original source. Every import is
// marked external so only the asset itself is parsed.
func scanJS(asset *domain.Asset) ([]importMatch, []api.Message) {
	var (
		mu      sync.Mutex
		matches []importMatch
	)
	record := api.Plugin{
		Name: "strata-imports",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `.*`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if kind, priority, ok := importKind(args.Kind); ok {
						mu.Lock()
						matches = append(matches, importMatch{
							specifier: args.Path,
							kind:      kind,
							priority:  priority,
							offset:    locate(asset.Code, args.Path, 0),
						})
						mu.Unlock()
					}
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				})
		},
	}

	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   string(asset.Code),
			Sourcefile: asset.FilePath,
			Loader:     loaderFor(asset.FileType.String()),
		},
		Bundle:   true,
		Write:    false,
		Format:   api.FormatESModule,
		Platform: api.PlatformNeutral,
		Target:   api.ESNext,
		LogLevel: api.LogLevelSilent,
		Plugins:  []api.Plugin{record},
	})
	if len(result.Errors) > 0 {
		return nil, result.Errors
	}
	sortByOffset(matches)
	return matches, nil
}

func importKind(kind api.ResolveKind) (domain.SpecifierType, domain.Priority, bool) {
	switch kind {
	case api.ResolveJSImportStatement:
		return domain.SpecifierESM, domain.PrioritySync, true
	case api.ResolveJSDynamicImport:
		return domain.SpecifierESM, domain.PriorityLazy, true
	case api.ResolveJSRequireCall:
		return domain.SpecifierCommonJS, domain.PrioritySync, true
	default:
		return "", "", false
	}
}

func loaderFor(fileType string) api.Loader {
	switch fileType {
	case "jsx":
		return api.LoaderJSX
	case "ts", "mts", "cts":
		return api.LoaderTS
	case "tsx":
		return api.LoaderTSX
	default:
		return api.LoaderJS
	}
}

func exportedSymbols(asset *domain.Asset) []domain.Symbol {
	var symbols []domain.Symbol
	for _, loc := range exportRegex.FindAllSubmatchIndex(asset.Code, -1) {
		name := string(asset.Code[loc[2]:loc[3]])
		symbols = append(symbols, domain.Symbol{
			Exported: name,
			Local:    name,
			Loc:      sourceLocation(asset.FilePath, asset.Code, loc[2], name),
		})
	}
	return symbols
}

// esbuildError converts esbuild messages to diagnostics with code frames over the original source.
func esbuildError(origin string, asset *domain.Asset, messages []api.Message) error {
	diags := make([]domain.Diagnostic, 0, len(messages))
	for _, msg := range messages {
		diag := domain.Diagnostic{
			Severity: domain.SeverityError,
			Message:  msg.Text,
			Origin:   origin,
		}
		if loc := msg.Location; loc != nil {
			diag.CodeFrames = []domain.CodeFrame{{
				FilePath: asset.FilePath,
				Language: asset.FileType.String(),
				Code:     string(asset.Code),
				Highlights: []domain.CodeHighlight{{
					Start: domain.Position{Line: loc.Line, Column: loc.Column + 1},
					End:   domain.Position{Line: loc.Line, Column: loc.Column + max(loc.Length, 1)},
				}},
			}}
		}
		for _, note := range msg.Notes {
			diag.Hints = append(diag.Hints, note.Text)
		}
		diags = append(diags, diag)
	}
	return domain.NewDiagnosticError(domain.ErrTransformFailed, diags...)
}
