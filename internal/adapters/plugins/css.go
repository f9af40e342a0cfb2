package plugins

import (
	"context"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

// CSSTransformerName is the package name of the CSS transformer.
const CSSTransformerName = "strata-transformer-css"

var _ ports.TransformerPlugin = (*CSSTransformer)(nil)

// CSSTransformer validates and normalizes CSS and collects @import and url() dependencies.
type CSSTransformer struct{}

// Name returns the plugin package name.
func (CSSTransformer) Name() string {
	return CSSTransformerName
}

// Transform runs the asset through esbuild's CSS loader.
func (t CSSTransformer) Transform(_ context.Context, asset *domain.Asset) (ports.TransformResult, error) {
	start := time.Now()

	result := api.Transform(string(asset.Code), api.TransformOptions{
		Loader:           api.LoaderCSS,
		Sourcefile:       asset.FilePath,
		LogLevel:         api.LogLevelSilent,
		MinifyWhitespace: asset.Env != nil && asset.Env.ShouldOptimize,
	})
	if len(result.Errors) > 0 {
		return ports.TransformResult{}, esbuildError(t.Name(), asset, result.Errors)
	}

	out := *asset
	out.Code = result.Code
	out.FileType = domain.NewInternedString("css")
	out.Stats = domain.AssetStats{Size: len(result.Code), DurationMS: time.Since(start).Milliseconds()}

	return ports.TransformResult{
		Asset:        &out,
		Dependencies: dependencies(asset.FilePath, asset.Code, scanCSS(result.Code)),
	}, nil
}
