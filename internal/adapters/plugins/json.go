package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/tidwall/jsonc"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

// JSONTransformerName is the package name of the JSON transformer.
const JSONTransformerName = "strata-transformer-json"

var _ ports.TransformerPlugin = (*JSONTransformer)(nil)

// JSONTransformer turns a JSON document into a JavaScript module with a default export.
// Comments and trailing commas are tolerated.
type JSONTransformer struct{}

// Name returns the plugin package name.
func (JSONTransformer) Name() string {
	return JSONTransformerName
}

// Transform converts the asset. Comment stripping blanks comments in place, so syntax
// errors found by the validating decode point at the original text.
func (t JSONTransformer) Transform(_ context.Context, asset *domain.Asset) (ports.TransformResult, error) {
	start := time.Now()
	src := jsonc.ToJSON(asset.Code)

	// json.Compact reports syntax errors without an offset.
	if err := json.Unmarshal(src, new(json.RawMessage)); err != nil {
		return ports.TransformResult{}, t.syntaxError(asset, err)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, src); err != nil {
		return ports.TransformResult{}, t.syntaxError(asset, err)
	}

	code := make([]byte, 0, compact.Len()+len("export default ;\n"))
	code = append(code, "export default "...)
	code = append(code, compact.Bytes()...)
	code = append(code, ";\n"...)

	out := *asset
	out.Code = code
	out.FileType = domain.NewInternedString("js")
	out.Symbols = []domain.Symbol{{Exported: "default", Local: "default"}}
	out.Stats = domain.AssetStats{Size: len(code), DurationMS: time.Since(start).Milliseconds()}

	return ports.TransformResult{Asset: &out}, nil
}

func (t JSONTransformer) syntaxError(asset *domain.Asset, err error) error {
	diag := domain.Diagnostic{
		Severity: domain.SeverityError,
		Message:  err.Error(),
		Origin:   t.Name(),
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		pos := positionAt(asset.Code, int(syntaxErr.Offset)-1)
		diag.CodeFrames = []domain.CodeFrame{{
			FilePath:   asset.FilePath,
			Language:   "json",
			Code:       string(asset.Code),
			Highlights: []domain.CodeHighlight{{Start: pos, End: pos}},
		}}
	}
	return domain.NewDiagnosticError(domain.ErrTransformFailed, diag)
}
