package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DefaultOpaqueBytes is the entropy of reset and verification tokens.
const DefaultOpaqueBytes = 32

// HashToken returns the lowercase hex SHA-256 digest of raw. Raw refresh,
// reset and verification tokens are only ever stored in this form.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// GenerateOpaqueToken returns n random bytes hex encoded. n <= 0 uses
// DefaultOpaqueBytes.
func GenerateOpaqueToken(n int) (string, error) {
	if n <= 0 {
		n = DefaultOpaqueBytes
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate opaque token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ExtractBearer parses an Authorization header of the form
// "Bearer <token>". The scheme is case-insensitive and the header must have
// exactly two space-separated parts.
func ExtractBearer(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
