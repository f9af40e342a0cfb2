package domain

import (
	"path/filepath"
	"strings"
)

// AssetID is the content-derived identity of an asset.
type AssetID string

// Symbol is an export of an asset.
type Symbol struct {
	Exported string          `cbor:"exported" json:"exported"`
	Local    string          `cbor:"local" json:"local"`
	Loc      *SourceLocation `cbor:"loc,omitempty" json:"loc,omitempty"`
}

// AssetStats records size and timing of the transform that produced an asset.
type AssetStats struct {
	Size       int   `cbor:"size" json:"size"`
	DurationMS int64 `cbor:"durationMs" json:"durationMs"`
}

// Asset is the transformed form of one source unit.
type Asset struct {
	ID             AssetID           `cbor:"id" json:"id"`
	FilePath       string            `cbor:"filePath" json:"filePath"`
	FileType       InternedString    `cbor:"fileType" json:"fileType"`
	Env            *Environment      `cbor:"env" json:"env"`
	Code           []byte            `cbor:"code" json:"-"`
	Query          string            `cbor:"query,omitempty" json:"query,omitempty"`
	Pipeline       string            `cbor:"pipeline,omitempty" json:"pipeline,omitempty"`
	UniqueKey      string            `cbor:"uniqueKey,omitempty" json:"uniqueKey,omitempty"`
	BundleBehavior BundleBehavior    `cbor:"bundleBehavior,omitempty" json:"bundleBehavior,omitempty"`
	IsSource       bool              `cbor:"isSource" json:"isSource"`
	IsVirtual      bool              `cbor:"isVirtual,omitempty" json:"isVirtual,omitempty"`
	SideEffects    bool              `cbor:"sideEffects" json:"sideEffects"`
	Symbols        []Symbol          `cbor:"symbols,omitempty" json:"symbols,omitempty"`
	Meta           map[string]string `cbor:"meta,omitempty" json:"meta,omitempty"`
	Stats          AssetStats        `cbor:"stats" json:"stats"`
}

// AssetIDParams are the inputs of an asset identity, hashed in declaration order.
type AssetIDParams struct {
	// Code is only set for inline or virtual assets that have no file of their own.
	Code      []byte
	EnvID     string
	FilePath  string
	FileType  string
	Pipeline  string
	Query     string
	UniqueKey string
}

// NewAssetID derives an asset identity from its parameters.
func NewAssetID(p AssetIDParams) AssetID {
	h := NewIDHasher()
	if p.Code != nil {
		h.String("code").Bytes(p.Code)
	} else {
		h.String("file")
	}
	h.String(p.EnvID).
		String(filepath.ToSlash(p.FilePath)).
		String(p.FileType).
		String(p.Pipeline).
		String(p.Query).
		String(p.UniqueKey)
	return AssetID(h.Sum())
}

// IDParams returns the identity parameters of a.
func (a *Asset) IDParams() AssetIDParams {
	p := AssetIDParams{
		EnvID:     a.Env.ID(),
		FilePath:  a.FilePath,
		FileType:  a.FileType.String(),
		Pipeline:  a.Pipeline,
		Query:     a.Query,
		UniqueKey: a.UniqueKey,
	}
	if a.IsVirtual {
		p.Code = a.Code
	}
	return p
}

// FileTypeOf returns the file type of path, the extension without its dot.
func FileTypeOf(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// Reintern swaps a decoded environment copy for its shared instance.
func (a *Asset) Reintern() {
	if a != nil {
		a.Env = Reintern(a.Env)
	}
}
