package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 4096
	digestLen  = 32
)

// GenerateSalt returns n random bytes hex-encoded. Each call produces a
// fresh value.
func GenerateSalt(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("GenerateSalt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Hash derives a hex digest from a secret and its salt. Deterministic for a
// given (secret, salt) pair; one-way.
func Hash(secret, salt string) string {
	key := pbkdf2.Key([]byte(secret), []byte(salt), iterations, digestLen, sha256.New)
	return hex.EncodeToString(key)
}
