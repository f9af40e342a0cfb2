package rpc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/fs"
	"go.trai.ch/strata/internal/adapters/packagemanager"
	"go.trai.ch/strata/internal/adapters/plugins"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

func newTestHost() *Host {
	mem := fs.NewMemory()
	return NewHost(plugins.NewSet(mem, packagemanager.New(mem)))
}

func TestHost_CallBeforeLoad(t *testing.T) {
	t.Parallel()

	h := newTestHost()
	ctx := context.Background()

	payload, err := marshal(transformRequest{
		Plugin: plugins.RawTransformerName,
		Asset: &domain.Asset{
			FilePath: filepath.FromSlash("/p/logo.svg"),
			FileType: domain.NewInternedString("svg"),
			Env:      domain.InternEnvironment(domain.DefaultEnvironment()),
			Code:     []byte("<svg/>"),
		},
	})
	require.NoError(t, err)

	_, err = h.Handle(ctx, MethodTransform, payload)
	require.ErrorIs(t, err, domain.ErrPluginNotLoaded)

	load, err := marshal(loadRequest{Kind: KindTransformer, Name: plugins.RawTransformerName})
	require.NoError(t, err)
	_, err = h.Handle(ctx, MethodLoadPlugin, load)
	require.NoError(t, err)

	out, err := h.Handle(ctx, MethodTransform, payload)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestHost_UnknownMethodAndKind(t *testing.T) {
	t.Parallel()

	h := newTestHost()
	ctx := context.Background()

	_, err := h.Handle(ctx, "compile", nil)
	require.ErrorIs(t, err, domain.ErrUnknownWorkerMethod)

	load, err := marshal(loadRequest{Kind: "bundler", Name: "strata-bundler-default"})
	require.NoError(t, err)
	_, err = h.Handle(ctx, MethodLoadPlugin, load)
	require.ErrorIs(t, err, domain.ErrPluginNotFound)
}

func TestHost_CorruptPayload(t *testing.T) {
	t.Parallel()

	_, err := newTestHost().Handle(context.Background(), MethodResolve, []byte{0xff, 0x00})
	require.ErrorIs(t, err, domain.ErrWorkerCallFailed)
}

func TestWireError_RoundTrip(t *testing.T) {
	t.Parallel()

	diag := domain.Diagnostic{Severity: domain.SeverityError, Message: "bad", Origin: "strata-transformer-js"}
	err := fromWire(toWire(domain.NewDiagnosticError(domain.ErrTransformFailed, diag)))
	require.ErrorIs(t, err, domain.ErrTransformFailed)
	assert.Equal(t, []domain.Diagnostic{diag}, domain.DiagnosticsOf(err, ""))

	err = fromWire(toWire(zerr.Wrap(domain.ErrPluginNotLoaded, "strata-transformer-js")))
	require.ErrorIs(t, err, domain.ErrPluginNotLoaded)
	assert.Equal(t, "strata-transformer-js: plugin not loaded on worker", err.Error())

	assert.Nil(t, toWire(nil))
	assert.NoError(t, fromWire(nil))
}
