// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"
)

// Command is an external program invocation.
type Command struct {
	// Argv is the program followed by its arguments.
	Argv []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env holds additional "KEY=VALUE" entries appended to the process environment.
	Env []string
	// Stdin, Stdout and Stderr default to the process streams when nil.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// CommandRunner runs external commands on behalf of the user.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type CommandRunner interface {
	// Run starts the command and returns its exit code.
	// Cancelling ctx terminates the child and returns ctx.Err() without waiting for it to exit.
	Run(ctx context.Context, cmd Command) (int, error)
}
