package plugins

import (
	"context"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

// RawTransformerName is the package name of the passthrough transformer.
const RawTransformerName = "strata-transformer-raw"

var _ ports.TransformerPlugin = (*RawTransformer)(nil)

// RawTransformer passes the asset through unchanged.
type RawTransformer struct{}

// Name returns the plugin package name.
func (RawTransformer) Name() string {
	return RawTransformerName
}

// Transform returns the asset as is.
func (RawTransformer) Transform(_ context.Context, asset *domain.Asset) (ports.TransformResult, error) {
	out := *asset
	out.Stats.Size = len(asset.Code)
	return ports.TransformResult{Asset: &out}, nil
}
