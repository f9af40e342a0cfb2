package compilation

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/strata/internal/adapters/cache"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/requestgraph"
)

// cacheFormat is bumped whenever the shape of cached transform results changes.
const cacheFormat = "1"

// AssetRequest transforms one source asset through its transformer pipeline.
// Results are memoized in the persistent cache under the asset identity, its content hash,
// the plugin configuration and the tool version.
type AssetRequest struct {
	c     *Compilation
	asset *domain.Asset
}

// Key identifies the request by asset identity.
func (r AssetRequest) Key() string {
	return "asset:" + string(r.asset.ID)
}

// Kind returns "asset".
func (AssetRequest) Kind() string {
	return "asset"
}

// Run reads and transforms the asset.
func (r AssetRequest) Run(ctx context.Context, rc *requestgraph.RunContext) (ports.TransformResult, error) {
	src := *r.asset
	if !src.IsVirtual {
		data, err := rc.ReadFile(src.FilePath)
		if err != nil {
			return ports.TransformResult{}, domain.NewDiagnosticError(domain.ErrTransformFailed, domain.Diagnostic{
				Severity:   domain.SeverityError,
				Message:    fmt.Sprintf("failed to read %s: %v", src.FilePath, err),
				Origin:     Origin,
				CodeFrames: []domain.CodeFrame{{FilePath: src.FilePath}},
			})
		}
		src.Code = data
	}

	key := domain.NewIDHasher().
		String("transform").
		String(cacheFormat).
		String(r.c.version).
		String(rc.Key()).
		String(domain.HashBytes(src.Code)).
		String(r.c.pipelines.ID()).
		Sum()

	res, err := cache.GetOrInitValue(ctx, r.c.cache, r.c.stats, key,
		func(ctx context.Context) (ports.TransformResult, error) {
			return r.c.pipelines.Transform(ctx, &src)
		})
	if err != nil {
		return ports.TransformResult{}, err
	}

	res.Reintern()
	if res.Asset == nil {
		res.Asset = &src
	}
	res.Asset.ID = src.ID
	if res.Asset.Env == nil {
		res.Asset.Env = src.Env
	}
	for _, a := range res.DiscoveredAssets {
		if a.Env == nil {
			a.Env = res.Asset.Env
		}
		if a.ID == "" {
			a.ID = domain.NewAssetID(a.IDParams())
		}
	}
	rc.InvalidateOnFileChange(res.InvalidateOnFileChange...)
	return res, nil
}

// sourceAsset is the untransformed asset a resolution points at.
func sourceAsset(dep *domain.Dependency, res ports.Resolution) *domain.Asset {
	pipeline := res.Pipeline
	if pipeline == "" {
		pipeline = dep.Pipeline
	}

	a := &domain.Asset{
		FilePath:       res.FilePath,
		FileType:       domain.NewInternedString(domain.FileTypeOf(res.FilePath)),
		Env:            dep.Env,
		Query:          res.Query,
		Pipeline:       pipeline,
		BundleBehavior: dep.BundleBehavior,
		IsSource:       !slices.Contains(strings.Split(filepath.ToSlash(res.FilePath), "/"), domain.NodeModulesDirName),
		SideEffects:    res.SideEffects,
	}
	if res.Code != nil {
		a.Code = res.Code
		a.IsVirtual = true
	}
	a.ID = domain.NewAssetID(a.IDParams())
	return a
}
