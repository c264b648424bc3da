package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// NonceSize is the default nonce length in bytes (256 bits of entropy).
const NonceSize = 32

// GenerateNonce returns a base64url (unpadded) random nonce of size bytes.
func GenerateNonce(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("nonce size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashNonce returns the lowercase hex SHA-256 of a raw nonce. Identity
// providers embed this hash in the ID token while the raw value is only
// ever sent to the identity backend.
func HashNonce(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
