package common

import (
	"crypto/rand"
	"fmt"
)

// randRead is a test seam for crypto/rand.Read.
var randRead = rand.Read

// GenerateRandByteArray returns size bytes read from the system CSPRNG.
// It never falls back to a deterministic source.
func GenerateRandByteArray(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := randRead(b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}

// WipeByteArray overwrites b with zeros. Use it for passwords and derived
// keys once they are no longer needed. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
