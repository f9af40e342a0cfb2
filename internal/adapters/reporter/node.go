package reporter

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/core/ports"
)

// NodeID is the unique identifier for the diagnostic reporter Graft node.
const NodeID graft.ID = "adapter.reporter"

func init() {
	graft.Register(graft.Node[ports.DiagnosticSink]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DiagnosticSink, error) {
			return New(nil), nil
		},
	})
}
