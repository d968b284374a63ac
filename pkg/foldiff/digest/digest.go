// Package digest provides the XXH3-64 content hashing used throughout
// Foldiff as the sole equality test for "same content" (spec §3, Hash).
package digest

import (
	"io"

	"github.com/zeebo/xxh3"
)

// Hash is a 64-bit XXH3 digest of a file's full content.
type Hash uint64

// copyBufferSize is the size of the internal buffer used when streaming file
// content through the hasher, matching the buffer size io.Copy defaults to
// when none is supplied.
const copyBufferSize = 32 * 1024

// NewHasher returns a fresh streaming XXH3-64 hash state.
func NewHasher() *xxh3.Hasher {
	return xxh3.New()
}

// Stream computes the Hash of r by streaming its content through an XXH3-64
// state. It never buffers the content whole. It returns the number of bytes
// read alongside the hash so that callers can cross-check against an
// expected size.
func Stream(r io.Reader) (Hash, uint64, error) {
	hasher := NewHasher()
	buffer := make([]byte, copyBufferSize)
	n, err := io.CopyBuffer(hasher, r, buffer)
	if err != nil {
		return 0, uint64(n), err
	}
	return Hash(hasher.Sum64()), uint64(n), nil
}

// Of returns the Hash of an in-memory buffer.
func Of(data []byte) Hash {
	return Hash(xxh3.Hash(data))
}
