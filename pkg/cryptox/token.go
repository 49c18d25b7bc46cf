package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// Sizes, in random bytes, for the credentials roomkey generates.
const (
	// TokenSize256 suits admin keys (43 base64url chars).
	TokenSize256 = 32
	// TokenSize512 suits HS256 secrets, which should be at least as long as
	// the SHA-256 block (86 base64url chars).
	TokenSize512 = 64
)

// GenerateToken returns size random bytes, base64url-encoded without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken identifies a credential without revealing it: the first
// 12 base64url chars of its SHA-256. Safe to log.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:12]
}

// EqualTokens compares two tokens in constant time. Both sides are hashed
// first so the comparison does not leak the expected length.
func EqualTokens(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
