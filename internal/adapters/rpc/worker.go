package rpc

import "context"

// Worker executes encoded plugin calls.
type Worker interface {
	Call(ctx context.Context, method string, payload []byte) ([]byte, error)
	Close() error
}

var _ Worker = (*InProcess)(nil)

// InProcess is a worker that runs its own Host in the calling process.
// Requests and results are still encoded, so plugins never share memory with the caller.
type InProcess struct {
	host *Host
}

// NewInProcess creates an in-process worker with a fresh Host over catalog.
func NewInProcess(catalog Catalog) *InProcess {
	return &InProcess{host: NewHost(catalog)}
}

// Host returns the worker's plugin host.
func (w *InProcess) Host() *Host {
	return w.host
}

// Call handles the call on the worker's Host.
func (w *InProcess) Call(ctx context.Context, method string, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return w.host.Handle(ctx, method, payload)
}

// Close is a no-op.
func (w *InProcess) Close() error {
	return nil
}
