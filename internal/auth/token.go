package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// TokenBytes is the entropy of a session token. 32 bytes -> 64 hex chars.
const TokenBytes = 32

// GenerateToken returns a cryptographically secure random token, hex
// encoded. The token goes to the client as-is and is never persisted; only
// its hash is. An entropy failure is not recoverable and is returned as an
// error the caller must treat as fatal.
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		n = TokenBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken derives the session id from a raw token: a SHA-256 hex digest.
// The mapping is one-way; there is no decode.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
