package crypto

import (
	stded25519 "crypto/ed25519"
	"crypto/rand"

	"github.com/fogpack/fogpack/errs"
	"github.com/fogpack/fogpack/value"
)

// GenerateKey produces a new Ed25519 identity and its private signing
// key using the system CSPRNG.
func GenerateKey() (value.Identity, stded25519.PrivateKey, error) {
	pub, priv, err := stded25519.GenerateKey(rand.Reader)
	if err != nil {
		return value.Identity{}, nil, errs.NewParseError(errs.ErrCryptoError, 0, "key generation failed: "+err.Error())
	}
	var id value.Identity
	copy(id[:], pub)
	return id, priv, nil
}

// Sign produces a detached Ed25519 signature over msg using priv.
func Sign(priv stded25519.PrivateKey, msg []byte) value.Signature {
	sig := stded25519.Sign(priv, msg)
	var out value.Signature
	copy(out[:], sig)
	return out
}

// Verify checks a detached Ed25519 signature over msg against id.
func Verify(id value.Identity, msg []byte, sig value.Signature) bool {
	return stded25519.Verify(id[:], msg, sig[:])
}
