package domain

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// IDHasher feeds fields into xxhash in a fixed order with NUL separators.
// Field order is part of the identity contract and must not change between releases.
type IDHasher struct {
	d *xxhash.Digest
}

// NewIDHasher returns an empty IDHasher.
func NewIDHasher() *IDHasher {
	return &IDHasher{d: xxhash.New()}
}

// String writes a string field.
func (h *IDHasher) String(s string) *IDHasher {
	_, _ = h.d.WriteString(s)
	_, _ = h.d.Write([]byte{0})
	return h
}

// Bytes writes a byte field, length-prefixed so empty and absent values differ from separators.
func (h *IDHasher) Bytes(b []byte) *IDHasher {
	_, _ = h.d.WriteString(strconv.Itoa(len(b)))
	_, _ = h.d.Write([]byte{':'})
	_, _ = h.d.Write(b)
	_, _ = h.d.Write([]byte{0})
	return h
}

// Bool writes a boolean field.
func (h *IDHasher) Bool(b bool) *IDHasher {
	if b {
		return h.String("1")
	}
	return h.String("0")
}

// Strings writes a list of strings in the given order followed by a section separator.
func (h *IDHasher) Strings(values []string) *IDHasher {
	for _, v := range values {
		h.String(v)
	}
	_, _ = h.d.Write([]byte{0})
	return h
}

// SortedStrings writes a list of strings in sorted order.
func (h *IDHasher) SortedStrings(values []string) *IDHasher {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return h.Strings(sorted)
}

// Map writes a string map in key order.
func (h *IDHasher) Map(m map[string]string) *IDHasher {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		_, _ = h.d.WriteString(k)
		_, _ = h.d.Write([]byte{'='})
		_, _ = h.d.WriteString(m[k])
		_, _ = h.d.Write([]byte{0})
	}
	_, _ = h.d.Write([]byte{0})
	return h
}

// Sum returns the hash as a 16 character hex string.
func (h *IDHasher) Sum() string {
	return fmt.Sprintf("%016x", h.d.Sum64())
}

// HashBytes returns the xxhash of b as a 16 character hex string.
func HashBytes(b []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

// HashString returns the xxhash of s as a 16 character hex string.
func HashString(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}
