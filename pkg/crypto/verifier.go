package crypto

import (
	"crypto/ed25519"
	"fmt"
)

// Ed25519Verifier binds a single public key for repeated verification
// against that key, e.g. when checking every entry in an identity's
// lineage chain against a shared operator key.
type Ed25519Verifier struct {
	PublicKey ed25519.PublicKey
}

// NewEd25519Verifier validates the public key length up front so that
// Verify itself never needs to.
func NewEd25519Verifier(pubKeyBytes []byte) (*Ed25519Verifier, error) {
	if len(pubKeyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("crypto: invalid public key size: %d", len(pubKeyBytes))
	}
	return &Ed25519Verifier{PublicKey: ed25519.PublicKey(pubKeyBytes)}, nil
}

func (v *Ed25519Verifier) Verify(message, signature []byte) bool {
	return Verify(message, signature, v.PublicKey)
}
