package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/Mindburn-Labs/covenant/pkg/canonicalize"
)

// SHA256 returns the lowercase hex-encoded SHA-256 digest of data.
func SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SHA256String is the UTF-8 string convenience form of SHA256.
func SHA256String(s string) string {
	return SHA256([]byte(s))
}

// SHA256Object hashes v in its JCS canonical form, so two structurally
// equal values hash identically regardless of field insertion order.
func SHA256Object(v interface{}) (string, error) {
	canonical, err := canonicalize.JCS(v)
	if err != nil {
		return "", fmt.Errorf("crypto: canonicalize for hashing: %w", err)
	}
	return SHA256(canonical), nil
}
