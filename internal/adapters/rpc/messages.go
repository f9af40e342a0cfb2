package rpc

import (
	"errors"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// Methods served by a worker.
const (
	MethodLoadPlugin = "loadPlugin"
	MethodResolve    = "resolve"
	MethodTransform  = "transform"
)

// Plugin kinds accepted by MethodLoadPlugin.
const (
	KindResolver    = "resolver"
	KindTransformer = "transformer"
)

type loadRequest struct {
	Kind        string `cbor:"kind"`
	Name        string `cbor:"name"`
	ResolveFrom string `cbor:"resolveFrom,omitempty"`
}

type resolveRequest struct {
	Plugin     string             `cbor:"plugin"`
	Dependency *domain.Dependency `cbor:"dependency"`
}

type transformRequest struct {
	Plugin string        `cbor:"plugin"`
	Asset  *domain.Asset `cbor:"asset"`
}

// wireError is an error as it crosses a process boundary.
// Kind names the sentinel so errors.Is keeps working on the caller's side.
type wireError struct {
	Kind        string              `cbor:"kind,omitempty"`
	Message     string              `cbor:"message"`
	Diagnostics []domain.Diagnostic `cbor:"diagnostics,omitempty"`
}

// wireKinds are the sentinels preserved across the wire.
var wireKinds = []error{
	domain.ErrTransformFailed,
	domain.ErrResolutionFailed,
	domain.ErrPluginNotLoaded,
	domain.ErrPluginNotFound,
	domain.ErrUnknownWorkerMethod,
	domain.ErrModuleNotFound,
	domain.ErrWorkerCallFailed,
}

func toWire(err error) *wireError {
	if err == nil {
		return nil
	}

	w := &wireError{Message: err.Error()}
	for _, kind := range wireKinds {
		if errors.Is(err, kind) {
			w.Kind = kind.Error()
			break
		}
	}

	var de *domain.DiagnosticError
	if errors.As(err, &de) {
		w.Diagnostics = de.Diagnostics
	}
	return w
}

func fromWire(w *wireError) error {
	if w == nil {
		return nil
	}

	for _, kind := range wireKinds {
		if kind.Error() != w.Kind {
			continue
		}
		if len(w.Diagnostics) > 0 {
			return domain.NewDiagnosticError(kind, w.Diagnostics...)
		}
		detail := strings.TrimSuffix(w.Message, kind.Error())
		return zerr.Wrap(kind, strings.TrimSuffix(detail, ": "))
	}
	return zerr.New(w.Message)
}
