package cache

import (
	"errors"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// compressionTag is the first byte of every blob file.
// Values are part of the on-disk format.
type compressionTag uint8

const (
	tagNone compressionTag = 0
	tagLZ4  compressionTag = 1
	tagZstd compressionTag = 2
)

var errIncompressible = errors.New("data is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("cache: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("cache: zstd decoder initialization failed: " + err.Error())
	}
}

func tagFor(c domain.Compression) (compressionTag, error) {
	switch c {
	case domain.CompressionZstd, "":
		return tagZstd, nil
	case domain.CompressionLZ4:
		return tagLZ4, nil
	case domain.CompressionNone:
		return tagNone, nil
	default:
		return 0, zerr.Wrap(domain.ErrUnknownCompression, string(c))
	}
}

// compress returns the payload and the tag it was actually written with.
// Incompressible data is stored raw.
func compress(data []byte, tag compressionTag) ([]byte, compressionTag) {
	var (
		out []byte
		err error
	)
	switch tag {
	case tagLZ4:
		out, err = compressLZ4(data)
	case tagZstd:
		out, err = compressZstd(data)
	default:
		return data, tagNone
	}
	if err != nil {
		return data, tagNone
	}
	return out, tag
}

func decompress(payload []byte, tag compressionTag, size int) ([]byte, error) {
	switch tag {
	case tagNone:
		if len(payload) != size {
			return nil, zerr.Wrap(domain.ErrCacheCorrupt, "size mismatch")
		}
		return payload, nil
	case tagLZ4:
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return nil, zerr.Wrap(domain.ErrCacheCorrupt, err.Error())
		}
		if n != size {
			return nil, zerr.Wrap(domain.ErrCacheCorrupt, "size mismatch")
		}
		return dst, nil
	case tagZstd:
		out, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, zerr.Wrap(domain.ErrCacheCorrupt, err.Error())
		}
		if len(out) != size {
			return nil, zerr.Wrap(domain.ErrCacheCorrupt, "size mismatch")
		}
		return out, nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrCacheCorrupt, "unknown compression tag"), "tag", int(tag))
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, err
	}
	// CompressBlock returns 0 for incompressible input.
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func compressZstd(data []byte) ([]byte, error) {
	out := zstdEncoder.EncodeAll(data, nil)
	if len(out) >= len(data) {
		return nil, errIncompressible
	}
	return out, nil
}
