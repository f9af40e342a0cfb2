package logger_test

import (
	"bytes"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/strata/internal/adapters/logger"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// newTestLogger returns a logger writing to a buffer without ANSI escapes.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_InfoWarn(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Info("build started")
	goldie.New(t).Assert(t, "info_basic", buf.Bytes())

	buf.Reset()
	lg.Warn("2 optional dependencies deferred")
	goldie.New(t).Assert(t, "warn_basic", buf.Bytes())
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		golden string
	}{
		{
			name:   "plain error",
			err:    os.ErrPermission,
			golden: "error_simple",
		},
		{
			name:   "multiline message",
			err:    errors.New("yaml: unmarshal errors:\n  line 3: cannot unmarshal"),
			golden: "error_multiline",
		},
		{
			name: "zerr chain",
			err: zerr.Wrap(
				zerr.Wrap(errors.New("no such file or directory"), "failed to read file"),
				"failed to load .stratarc",
			),
			golden: "error_chain",
		},
		{
			name:   "metadata",
			err:    zerr.With(zerr.Wrap(errors.New("connection refused"), "worker call failed"), "addr", "127.0.0.1:7000"),
			golden: "error_metadata",
		},
		{
			name:   "metadata on a plain error",
			err:    zerr.With(errors.New("boom"), "plugin", "strata-transformer-js"),
			golden: "error_with_plain",
		},
		{
			name:   "wrapped sentinel",
			err:    zerr.With(zerr.Wrap(domain.ErrModuleNotFound, "lodash"), "from", "/p/src"),
			golden: "error_sentinel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Error(tt.err)
			goldie.New(t).Assert(t, tt.golden, buf.Bytes())
		})
	}
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)
	lg.Error(zerr.With(zerr.Wrap(errors.New("connection refused"), "worker call failed"), "addr", "127.0.0.1:7000"))

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, "worker call failed")
	assert.Contains(t, out, "127.0.0.1:7000")
	assert.NotContains(t, out, "✗")

	buf.Reset()
	lg.SetJSON(false)
	lg.Error(errors.New("back to pretty"))
	assert.Equal(t, "✗ Error: back to pretty\n", buf.String())
}

func TestLogger_ConcurrentUse(t *testing.T) {
	lg, buf := newTestLogger(t)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			lg.Info("info")
			lg.Warn("warn")
			lg.Error(errors.New("error"))
		})
	}
	wg.Go(func() { lg.SetJSON(true) })
	wg.Wait()

	assert.NotEmpty(t, buf.String())
}
