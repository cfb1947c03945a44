package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeForHash collapses whitespace and lowercases content so cosmetic
// reflows of the same article hash identically.
func NormalizeForHash(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ContentHash is the SHA-256 hex digest of the normalised content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(NormalizeForHash(content)))
	return hex.EncodeToString(sum[:])
}
