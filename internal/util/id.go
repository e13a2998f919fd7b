package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a URL-safe hex string. 16 random bytes keep collisions
// negligible even when the value doubles as a session token.
func NewID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
