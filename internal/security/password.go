package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	SaltBytes  = 16
	TokenBytes = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

func randomString(n int) (string, error) {
	b := make([]byte, n)

	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateSalt returns a fresh per-user salt with 16 bytes of entropy.
func GenerateSalt() (string, error) {
	return randomString(SaltBytes)
}

// GenerateToken returns an opaque bearer token.
func GenerateToken() (string, error) {
	return randomString(TokenBytes)
}

// HashPassword derives an argon2id digest of plain under salt.
// The same inputs always give the same digest.
func HashPassword(plain, salt string) string {
	key := argon2.IDKey([]byte(plain), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)

	return base64.RawStdEncoding.EncodeToString(key)
}

// CheckPassword re-hashes plain and compares it with stored in constant time.
func CheckPassword(plain, salt, stored string) bool {
	got := HashPassword(plain, salt)

	return subtle.ConstantTimeCompare([]byte(got), []byte(stored)) == 1
}
