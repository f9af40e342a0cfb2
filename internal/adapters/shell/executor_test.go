package shell_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/shell"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

func TestRunner_Output(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code, err := shell.NewRunner().Run(context.Background(), ports.Command{
		Argv:   []string{"sh", "-c", "echo line1; echo line2; echo oops >&2"},
		Dir:    t.TempDir(),
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "line1\nline2\n", stdout.String())
	assert.Equal(t, "oops\n", stderr.String())
}

func TestRunner_EnvironmentAndDir(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	_, err := shell.NewRunner().Run(context.Background(), ports.Command{
		Argv:   []string{"sh", "-c", "echo $STRATA_TEST_VAR; pwd"},
		Dir:    dir,
		Env:    []string{"STRATA_TEST_VAR=value-123"},
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: io.Discard,
	})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "value-123")
	assert.Contains(t, stdout.String(), dir)
}

func TestRunner_Stdin(t *testing.T) {
	var stdout bytes.Buffer
	_, err := shell.NewRunner().Run(context.Background(), ports.Command{
		Argv:   []string{"cat"},
		Stdin:  strings.NewReader("piped"),
		Stdout: &stdout,
		Stderr: io.Discard,
	})
	require.NoError(t, err)
	assert.Equal(t, "piped", stdout.String())
}

func TestRunner_ExitCode(t *testing.T) {
	code, err := shell.NewRunner().Run(context.Background(), ports.Command{
		Argv:   []string{"sh", "-c", "exit 42"},
		Stdin:  strings.NewReader(""),
		Stdout: io.Discard,
		Stderr: io.Discard,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, code)
}

func TestRunner_Errors(t *testing.T) {
	runner := shell.NewRunner()

	_, err := runner.Run(context.Background(), ports.Command{})
	require.ErrorIs(t, err, domain.ErrNoCommand)

	_, err = runner.Run(context.Background(), ports.Command{
		Argv:   []string{"nonexistent-command-xyz123"},
		Stdin:  strings.NewReader(""),
		Stdout: io.Discard,
		Stderr: io.Discard,
	})
	require.ErrorIs(t, err, domain.ErrCommandFailed)
}

func TestRunner_CancelReturnsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	begin := time.Now()
	code, err := shell.NewRunner().Run(ctx, ports.Command{
		Argv:   []string{"sleep", "30"},
		Stdin:  strings.NewReader(""),
		Stdout: io.Discard,
		Stderr: io.Discard,
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, -1, code)
	assert.Less(t, time.Since(begin), 10*time.Second)
}
