package ports

import (
	"context"

	"go.trai.ch/strata/internal/core/domain"
)

// DiagnosticSink receives structured diagnostics for user-facing reporting.
//
//go:generate go run go.uber.org/mock/mockgen -source=diagnostics.go -destination=mocks/mock_diagnostics.go -package=mocks
type DiagnosticSink interface {
	Report(ctx context.Context, diags []domain.Diagnostic)
}
