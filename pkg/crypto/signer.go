package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// KeyPair holds an Ed25519 key pair along with its hex-encoded public key.
type KeyPair struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	PublicHex  string
}

// GenerateKeyPair creates a new Ed25519 key pair from the platform CSPRNG.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: key generation failed: %w", err)
	}
	return &KeyPair{
		PrivateKey: priv,
		PublicKey:  pub,
		PublicHex:  hex.EncodeToString(pub),
	}, nil
}

// KeyPairFromPrivateKey reconstructs a KeyPair from a 32-byte Ed25519 seed.
//
// A 64-byte value ({seed||public} concatenation, as produced by some
// exporters) is accepted but only the first 32 bytes are used as the seed;
// the derived public key is recomputed rather than trusted from the tail.
func KeyPairFromPrivateKey(privateKey []byte) (*KeyPair, error) {
	var seed []byte
	switch len(privateKey) {
	case ed25519.SeedSize:
		seed = privateKey
	case ed25519.PrivateKeySize:
		seed = privateKey[:ed25519.SeedSize]
	default:
		return nil, fmt.Errorf("crypto: private key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(privateKey))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &KeyPair{
		PrivateKey: priv,
		PublicKey:  pub,
		PublicHex:  hex.EncodeToString(pub),
	}, nil
}

// Sign signs arbitrary bytes with an Ed25519 private key (32-byte seed or
// 64-byte seed||public form; only the seed is used).
func Sign(message, privateKey []byte) ([]byte, error) {
	kp, err := KeyPairFromPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(kp.PrivateKey, message), nil
}

// SignString signs a UTF-8 string, returning a hex-encoded signature.
func SignString(message string, privateKey []byte) (string, error) {
	sig, err := Sign([]byte(message), privateKey)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

// Verify checks an Ed25519 signature against a message and public key. It
// never panics: malformed lengths are rejected structurally before the
// underlying ed25519 call.
func Verify(message, signature, publicKey []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}

// VerifyHex is the hex-string convenience form of Verify, used when
// signatures and keys travel as hex fields on wire documents. It never
// returns an error for malformed hex -- any decoding failure simply fails
// verification.
func VerifyHex(message []byte, signatureHex, publicKeyHex string) bool {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false
	}
	return Verify(message, sig, pub)
}

// ConstantTimeEqual compares two byte slices in constant time, guarding
// against timing side channels when comparing signatures or hashes.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
