package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)
	// 32 bytes of entropy, hex encoded
	assert.Len(t, key, 64)
	_, err = hex.DecodeString(key)
	assert.NoError(t, err, "key should be valid hex")
}

func TestGenerateAPIKeyIsRandom(t *testing.T) {
	a, err := GenerateAPIKey()
	require.NoError(t, err)
	b, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDigestAPIKey(t *testing.T) {
	key := "0123456789abcdef"
	sum := sha256.Sum256([]byte(key))
	want := hex.EncodeToString(sum[:])
	assert.Equal(t, want, DigestAPIKey(key))
	// Deterministic, so it can serve as a lookup index
	assert.Equal(t, DigestAPIKey(key), DigestAPIKey(key))
	// And never the key itself
	assert.NotEqual(t, key, DigestAPIKey(key))
}
