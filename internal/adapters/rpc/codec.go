package rpc

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
	"google.golang.org/grpc/encoding"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.TextMarshaler = cbor.TextMarshalerTextString
	var err error
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic("rpc: cbor encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("rpc: cbor decoder initialization failed: " + err.Error())
	}
}

func marshal(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, zerr.Wrap(domain.ErrWorkerCallFailed, "encode: "+err.Error())
	}
	return data, nil
}

func unmarshal(data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return zerr.Wrap(domain.ErrWorkerCallFailed, "decode: "+err.Error())
	}
	return nil
}

// codecName is the gRPC content subtype of worker messages.
const codecName = "cbor"

var _ encoding.Codec = grpcCodec{}

// grpcCodec carries worker envelopes as CBOR instead of protobuf.
type grpcCodec struct{}

func (grpcCodec) Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func (grpcCodec) Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

func (grpcCodec) Name() string {
	return codecName
}
