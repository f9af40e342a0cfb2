package rpc

import (
	"context"
	"net"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	serviceName    = "strata.rpc.Worker"
	callMethodName = "Call"
	callFullMethod = "/" + serviceName + "/" + callMethodName
)

// Envelope is the single message type of the worker service.
type Envelope struct {
	Method  string     `cbor:"method"`
	Payload []byte     `cbor:"payload,omitempty"`
	Error   *wireError `cbor:"error,omitempty"`
}

type workerService interface {
	Call(ctx context.Context, in *Envelope) (*Envelope, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*workerService)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: callMethodName,
		Handler:    callHandler,
	}},
	Streams:  []grpc.StreamDesc{},
	Metadata: "strata/rpc/worker",
}

func callHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Envelope)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(workerService).Call(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: callFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(workerService).Call(ctx, req.(*Envelope))
	}
	return interceptor(ctx, in, info, handler)
}

// Server exposes a Host over gRPC.
type Server struct {
	host       *Host
	grpcServer *grpc.Server
}

// NewServer creates a server for host.
func NewServer(host *Host) *Server {
	s := &Server{
		host:       host,
		grpcServer: grpc.NewServer(grpc.ForceServerCodec(grpcCodec{})),
	}
	s.grpcServer.RegisterService(&serviceDesc, s)
	return s
}

// Call implements the worker service. Plugin failures travel inside the envelope,
// transport failures as gRPC status errors.
func (s *Server) Call(ctx context.Context, in *Envelope) (*Envelope, error) {
	out, err := s.host.Handle(ctx, in.Method, in.Payload)
	return &Envelope{Method: in.Method, Payload: out, Error: toWire(err)}, nil
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Listen opens a listener for addr. "unix://" addresses listen on a socket path, anything else on TCP.
func Listen(addr string) (net.Listener, error) {
	network, address := "tcp", addr
	if path, ok := strings.CutPrefix(addr, "unix://"); ok {
		network, address = "unix", path
	}

	lis, err := net.Listen(network, address)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to listen"), "addr", addr)
	}
	return lis, nil
}

var _ Worker = (*Client)(nil)

// Client is a worker reached over gRPC.
type Client struct {
	addr string
	conn *grpc.ClientConn
}

// Dial connects to a worker at addr.
// grpc.NewClient returns immediately; the connection is made on the first call.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(grpcCodec{})),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrWorkerCallFailed, err.Error()), "addr", addr)
	}
	return &Client{addr: addr, conn: conn}, nil
}

// Call sends the call to the remote worker.
func (c *Client) Call(ctx context.Context, method string, payload []byte) ([]byte, error) {
	out := new(Envelope)
	if err := c.conn.Invoke(ctx, callFullMethod, &Envelope{Method: method, Payload: payload}, out); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrWorkerCallFailed, err.Error()), "addr", c.addr)
	}
	if out.Error != nil {
		return nil, fromWire(out.Error)
	}
	return out.Payload, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
