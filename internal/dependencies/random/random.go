package random

import (
	"crypto/rand"
	"encoding/hex"
)

// Random provides random values that can be mocked for testing
type Random interface {
	// Hex returns a 0x-prefixed hex string of n random bytes
	Hex(n int) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Hex generates a random 0x-prefixed hex string
func (r *CryptoRandom) Hex(n int) string {
	if n <= 0 {
		return "0x"
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "0x"
	}
	return "0x" + hex.EncodeToString(buf)
}
