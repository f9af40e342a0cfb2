package cache

import (
	"bytes"
	"encoding/binary"

	"github.com/zeebo/blake3"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	checksumSize = 32
	maxBlobSize  = 1 << 31
)

// encodeBlob lays out a blob file as:
//
//	tag (1 byte) | uvarint raw size | blake3(raw) (32 bytes) | payload
func encodeBlob(raw []byte, tag compressionTag) []byte {
	payload, used := compress(raw, tag)
	sum := blake3.Sum256(raw)

	buf := make([]byte, 0, 1+binary.MaxVarintLen64+checksumSize+len(payload))
	buf = append(buf, byte(used))
	buf = binary.AppendUvarint(buf, uint64(len(raw)))
	buf = append(buf, sum[:]...)
	return append(buf, payload...)
}

func decodeBlob(data []byte) ([]byte, error) {
	if len(data) < 1 {
		return nil, zerr.Wrap(domain.ErrCacheCorrupt, "empty blob")
	}
	tag := compressionTag(data[0])

	size, n := binary.Uvarint(data[1:])
	if n <= 0 || size > maxBlobSize {
		return nil, zerr.Wrap(domain.ErrCacheCorrupt, "bad size header")
	}
	rest := data[1+n:]
	if len(rest) < checksumSize {
		return nil, zerr.Wrap(domain.ErrCacheCorrupt, "truncated checksum")
	}
	want, payload := rest[:checksumSize], rest[checksumSize:]

	raw, err := decompress(payload, tag, int(size))
	if err != nil {
		return nil, err
	}

	got := blake3.Sum256(raw)
	if !bytes.Equal(got[:], want) {
		return nil, zerr.Wrap(domain.ErrCacheCorrupt, "checksum mismatch")
	}
	return raw, nil
}
