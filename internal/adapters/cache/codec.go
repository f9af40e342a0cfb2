package cache

import (
	"context"
	"errors"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
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
		panic("cache: cbor encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("cache: cbor decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v with deterministic CBOR.
func Marshal(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheEncodeFailed.Error())
	}
	return data, nil
}

// Unmarshal decodes CBOR data into v. Decode failures report ErrCacheCorrupt.
func Unmarshal(data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return zerr.Wrap(domain.ErrCacheCorrupt, err.Error())
	}
	return nil
}

// GetValue reads and decodes the value stored under key.
func GetValue[T any](ctx context.Context, c ports.Cache, key string) (T, bool, error) {
	var zero T
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return zero, ok, err
	}
	var v T
	if err := Unmarshal(data, &v); err != nil {
		return zero, false, zerr.With(err, "key", key)
	}
	return v, true, nil
}

// SetValue encodes v and stores it under key.
func SetValue[T any](ctx context.Context, c ports.Cache, key string, v T) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data)
}

// GetOrInitValue is the typed form of ports.Cache.GetOrInit.
// A corrupt entry is dropped and recomputed once; stats (which may be nil)
// records that as a bailout.
func GetOrInitValue[T any](
	ctx context.Context,
	c ports.Cache,
	stats ports.StatsRecorder,
	key string,
	compute func(context.Context) (T, error),
) (T, error) {
	v, err := getOrInitValue(ctx, c, key, compute)
	if err == nil || !errors.Is(err, domain.ErrCacheCorrupt) {
		return v, err
	}

	recordEvent(stats, "bailout")
	if err := c.Delete(ctx, key); err != nil {
		var zero T
		return zero, err
	}
	return getOrInitValue(ctx, c, key, compute)
}

func getOrInitValue[T any](
	ctx context.Context,
	c ports.Cache,
	key string,
	compute func(context.Context) (T, error),
) (T, error) {
	var (
		zero     T
		fresh    T
		computed bool
	)
	data, err := c.GetOrInit(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		fresh, computed = v, true
		return Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	if computed {
		return fresh, nil
	}

	var v T
	if err := Unmarshal(data, &v); err != nil {
		return zero, zerr.With(err, "key", key)
	}
	return v, nil
}
