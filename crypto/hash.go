// Package crypto implements fog-pack's two cryptographic primitives:
// Blake2b-256 content hashing and Ed25519 signing/verification. Both
// wrap the standard library / golang.org/x/crypto rather than
// reimplementing curve or hash arithmetic, the way the wider example
// corpus adapts vetted crypto libraries behind a small domain-shaped API
// instead of hand-rolling primitives.
package crypto

import (
	"golang.org/x/crypto/blake2b"

	"github.com/fogpack/fogpack/value"
)

// Hash computes the version-1 (Blake2b-256) content hash of data.
func Hash(data []byte) value.Hash {
	digest := blake2b.Sum256(data)
	return value.Hash{Version: value.HashVersionBlake2b, Digest: digest}
}

// HashState is an incremental Blake2b-256 hasher for callers that build
// up a hash from multiple disjoint byte slices (e.g. hashing a document
// body followed by its schema hash) without concatenating them first.
type HashState struct {
	h interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
	}
}

// NewHashState returns a fresh incremental hash state.
func NewHashState() *HashState {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for a non-nil key of bad length; a nil
		// key never triggers that path.
		panic(err)
	}
	return &HashState{h: h}
}

// Write feeds more bytes into the running hash.
func (s *HashState) Write(p []byte) {
	s.h.Write(p)
}

// Sum finalizes the hash and returns it as a version-1 value.Hash. The
// state remains usable for further Sum calls, matching hash.Hash's
// append-only Sum semantics.
func (s *HashState) Sum() value.Hash {
	var digest [32]byte
	copy(digest[:], s.h.Sum(nil))
	return value.Hash{Version: value.HashVersionBlake2b, Digest: digest}
}
