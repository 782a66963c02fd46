package container

import (
	stded25519 "crypto/ed25519"

	"github.com/fogpack/fogpack/crypto"
	"github.com/fogpack/fogpack/errs"
	"github.com/fogpack/fogpack/value"
	"github.com/fogpack/fogpack/varint"
)

const identitySize = 32
const signatureSize = 64

// signingMessage is the byte sequence a signer actually signs: the
// encoded content hash of the canonical body, not the raw body bytes.
// Using the hash (rather than the body) means the signature is the same
// regardless of which compression shape a Document or Entry is framed
// with, since every framing hashes the same uncompressed canonical body.
func signingMessage(h value.Hash) []byte {
	if h.IsEmpty() {
		return []byte{byte(h.Version)}
	}
	out := make([]byte, 33)
	out[0] = byte(h.Version)
	copy(out[1:], h.Digest[:])
	return out
}

// encodeTail appends the signed tail (a varint count followed by
// Identity‖Signature pairs) for bodyHash to dst.
func encodeTail(dst []byte, bodyHash value.Hash, signers []value.Identity, sigs []value.Signature) []byte {
	dst = varint.Encode(dst, uint32(len(signers)))
	for i := range signers {
		dst = append(dst, signers[i][:]...)
		dst = append(dst, sigs[i][:]...)
	}
	return dst
}

// decodeTail reads a signed tail from the front of b and verifies every
// signature against bodyHash, failing with errs.ErrBadSignature on the
// first failing signer.
func decodeTail(b []byte, bodyHash value.Hash) ([]value.Identity, []value.Signature, int, error) {
	count, n, err := varint.Decode(b)
	if err != nil {
		return nil, nil, 0, err
	}
	pos := n
	pairSize := identitySize + signatureSize
	need := int(count) * pairSize
	if pos+need > len(b) {
		return nil, nil, 0, errs.NewParseError(errs.ErrBadEncode, len(b)-pos, "truncated signed tail")
	}

	msg := signingMessage(bodyHash)
	signers := make([]value.Identity, count)
	sigs := make([]value.Signature, count)
	for i := 0; i < int(count); i++ {
		var id value.Identity
		var sig value.Signature
		copy(id[:], b[pos:pos+identitySize])
		pos += identitySize
		copy(sig[:], b[pos:pos+signatureSize])
		pos += signatureSize

		if !crypto.Verify(id, msg, sig) {
			return nil, nil, 0, errs.NewParseError(errs.ErrBadSignature, len(b)-pos, "signature verification failed")
		}
		signers[i] = id
		sigs[i] = sig
	}
	return signers, sigs, pos, nil
}

// Sign produces the detached signature a signer contributes to a
// Document/Entry's signed tail, over the content hash of its canonical
// body rather than over the body bytes directly.
func Sign(priv stded25519.PrivateKey, bodyHash value.Hash) value.Signature {
	return crypto.Sign(priv, signingMessage(bodyHash))
}
