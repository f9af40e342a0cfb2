// Package shell runs external commands for the exec passthrough.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/creack/pty"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

var _ ports.CommandRunner = (*Runner)(nil)

// Runner implements ports.CommandRunner using os/exec, attaching a pty when stdin is a terminal.
type Runner struct{}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{}
}

type result struct {
	code int
	err  error
}

// process is a started command. release undoes terminal changes and is safe to call more than once.
type process struct {
	wait    func() result
	release func()
}

var restoreTerminal = term.Restore

// Run starts the command and waits for it on a dedicated goroutine.
// When ctx is cancelled the child is killed and Run returns ctx.Err() right away.
func (r *Runner) Run(ctx context.Context, c ports.Command) (int, error) {
	if len(c.Argv) == 0 {
		return -1, domain.ErrNoCommand
	}
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	stdin, stdout, stderr := streams(c)
	env := append(os.Environ(), c.Env...)

	name := c.Argv[0]
	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.Command(executable, c.Argv[1:]...) //nolint:gosec // user provided command
	cmd.Args[0] = name
	cmd.Dir = c.Dir
	cmd.Env = env

	proc, err := start(cmd, stdin, stdout, stderr)
	if err != nil {
		return -1, zerr.With(zerr.Wrap(domain.ErrCommandFailed, err.Error()), "command", name)
	}

	done := make(chan result, 1)
	go func() {
		done <- proc.wait()
	}()

	select {
	case res := <-done:
		return res.code, res.err
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		proc.release()
		return -1, ctx.Err()
	}
}

func streams(c ports.Command) (io.Reader, io.Writer, io.Writer) {
	var stdin io.Reader = os.Stdin
	var stdout io.Writer = os.Stdout
	var stderr io.Writer = os.Stderr
	if c.Stdin != nil {
		stdin = c.Stdin
	}
	if c.Stdout != nil {
		stdout = c.Stdout
	}
	if c.Stderr != nil {
		stderr = c.Stderr
	}
	return stdin, stdout, stderr
}

// start launches cmd. The returned wait blocks until it exits.
func start(cmd *exec.Cmd, stdin io.Reader, stdout, stderr io.Writer) (process, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return startPTY(cmd, f, stdout)
	}

	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return process{}, err
	}
	return process{
		wait:    func() result { return exitResult(cmd.Wait()) },
		release: func() {},
	}, nil
}

// startPTY runs cmd on a pseudo terminal with the user's terminal in raw mode.
func startPTY(cmd *exec.Cmd, tty *os.File, stdout io.Writer) (process, error) {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return process{}, err
	}
	_ = pty.InheritSize(tty, ptmx)

	restore := func() {}
	if state, err := term.MakeRaw(int(tty.Fd())); err == nil {
		restore = sync.OnceFunc(func() { _ = restoreTerminal(int(tty.Fd()), state) })
	}

	go func() { _, _ = io.Copy(ptmx, tty) }()
	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		_, _ = io.Copy(stdout, ptmx)
	}()

	return process{
		wait: func() result {
			err := cmd.Wait()
			_ = ptmx.Close()
			<-ioDone
			restore()
			return exitResult(err)
		},
		release: restore,
	}, nil
}

// exitResult converts a Wait error into an exit code. A non-zero exit is not an error.
func exitResult(err error) result {
	if err == nil {
		return result{code: 0}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result{code: exitErr.ExitCode()}
	}
	return result{code: -1, err: zerr.Wrap(domain.ErrCommandFailed, err.Error())}
}

// lookPath searches for an executable in the directories named by PATH in env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
