package crypto

import (
	"crypto/rand"
	"fmt"
	"time"
)

// GenerateNonce returns a cryptographically secure 32-byte nonce.
func GenerateNonce() ([]byte, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: nonce generation failed: %w", err)
	}
	return nonce, nil
}

// Timestamp returns the current time as an ISO-8601 UTC string with
// exactly three fractional-second digits, e.g. "2025-01-15T12:00:00.000Z" --
// matching the millisecond precision JavaScript's toISOString() produces.
func Timestamp() string {
	return FormatTimestamp(time.Now().UTC())
}

// FormatTimestamp renders t in the same fixed ISO-8601 millisecond form as
// Timestamp, for callers that need a deterministic instant (tests, replay).
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s.%03dZ", t.Format("2006-01-02T15:04:05"), t.Nanosecond()/1_000_000)
}
