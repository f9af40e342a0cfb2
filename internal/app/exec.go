package app

import (
	"context"
	"fmt"

	"go.trai.ch/strata/internal/adapters/rpc" //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// ExitError reports the non-zero exit status of a passthrough command.
type ExitError struct {
	Code int
}

// Error implements error.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Exec runs argv with the process streams attached.
// An interrupt returns immediately; the child is killed without waiting for it.
func (a *App) Exec(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return domain.ErrNoCommand
	}

	code, err := a.Runner.Run(ctx, ports.Command{Argv: argv})
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// Worker serves the built-in plugins over gRPC on addr until ctx is done.
func (a *App) Worker(ctx context.Context, addr string) error {
	lis, err := rpc.Listen(addr)
	if err != nil {
		return err
	}

	a.Logger.Info(fmt.Sprintf("worker listening on %s", lis.Addr()))
	if err := rpc.NewServer(rpc.NewHost(a.Plugins)).Serve(ctx, lis); err != nil {
		return zerr.With(zerr.Wrap(err, "worker stopped"), "addr", addr)
	}
	return nil
}
