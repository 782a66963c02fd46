package value

import (
	"crypto/subtle"
	"encoding/hex"
)

// HashVersion identifies the algorithm a Hash's digest was produced with.
type HashVersion uint8

const (
	// HashVersionEmpty is the reserved placeholder version used for the
	// zero-length parent/self hash slot in an Entry or a new Document with
	// no parent.
	HashVersionEmpty HashVersion = 0
	// HashVersionBlake2b identifies a 32-byte Blake2b-256 digest.
	HashVersionBlake2b HashVersion = 1
)

// Hash is a versioned content digest. Version 0 carries no digest bytes
// and exists only to mark "no hash here" in a fixed Hash-typed slot.
// Version 1 carries a 32-byte Blake2b-256 digest.
type Hash struct {
	Version HashVersion
	Digest  [32]byte
}

// EmptyHash is the version-0 placeholder hash.
var EmptyHash = Hash{Version: HashVersionEmpty}

// IsEmpty reports whether h is the version-0 placeholder.
func (h Hash) IsEmpty() bool { return h.Version == HashVersionEmpty }

// Equal compares two hashes in constant time for equal versions, since a
// Hash often derives from caller-supplied, security-sensitive bytes
// (schema identifiers, parent links).
func (h Hash) Equal(o Hash) bool {
	if h.Version != o.Version {
		return false
	}
	return subtle.ConstantTimeCompare(h.Digest[:], o.Digest[:]) == 1
}

// Less orders two hashes first by version, then lexicographically by
// digest, giving fog-pack's Hash type a total order usable as a query
// range bound or a map/BTree key.
func (h Hash) Less(o Hash) bool {
	if h.Version != o.Version {
		return h.Version < o.Version
	}
	for i := range h.Digest {
		if h.Digest[i] != o.Digest[i] {
			return h.Digest[i] < o.Digest[i]
		}
	}
	return false
}

// String renders the hash as "v<version>:<hex digest>" for logging.
// Empty hashes render as "v0:".
func (h Hash) String() string {
	if h.IsEmpty() {
		return "v0:"
	}
	return "v1:" + hex.EncodeToString(h.Digest[:])
}

// Identity is an Ed25519 public key.
type Identity [32]byte

func (id Identity) String() string { return hex.EncodeToString(id[:]) }

// Signature is a detached Ed25519 signature.
type Signature [64]byte

func (s Signature) String() string { return hex.EncodeToString(s[:]) }
