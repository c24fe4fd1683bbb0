package utils

import (
	"crypto/rand"   // Secure random source
	"crypto/sha256" // Fast deterministic digest for the lookup index
	"encoding/hex"  // Hex encoding
)

// APIKeyBytes is the entropy of a generated API key (32 bytes = 256 bits)
const APIKeyBytes = 32

// GenerateAPIKey returns a new random API key as a 64-character hex string.
// The plaintext is shown to the user once; only its digest is ever stored.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, APIKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err // Return error if the random source fails
	}
	return hex.EncodeToString(buf), nil
}

// DigestAPIKey returns the SHA-256 hex digest of an API key. The key already
// carries 256 bits of entropy, so a fast digest keyed for O(1) lookup is used
// instead of a slow key-stretching hash.
func DigestAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
