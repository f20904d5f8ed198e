package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSecret returns the lowercase hex SHA-256 of the UTF-8 plaintext. This is
// the only form in which client secrets are stored.
func HashSecret(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// EnsureHashed hashes value unless isHashed is already set. The returned flag
// is always true so callers can carry it alongside the value.
func EnsureHashed(value string, isHashed bool) (string, bool) {
	if isHashed {
		return value, true
	}
	return HashSecret(value), true
}
