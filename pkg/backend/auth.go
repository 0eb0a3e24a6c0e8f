package backend

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Reserved password hash values.
const (
	// HashTODO and HashMock mark legacy and placeholder accounts whose
	// password is never checked.
	HashTODO = "TODO_HASH"
	HashMock = "mock"

	// HashGitHubOAuth marks accounts that only authenticate through GitHub.
	HashGitHubOAuth = "github-oauth"
)

const (
	pbkdf2Iterations = 1000
	pbkdf2KeyLen     = 64
	saltLen          = 16
	tokenLen         = 32
	tokenPrefix      = "tcx_"
)

// IsPlaceholderHash reports whether hash is a legacy or placeholder value
// that skips password verification.
func IsPlaceholderHash(hash string) bool {
	return hash == HashTODO || hash == HashMock
}

// HashPassword hashes the password with a new random salt. The result has
// the form "salt:hex(key)".
func HashPassword(password string) (string, error) {
	buf := make([]byte, saltLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return HashPasswordWithSalt(password, hex.EncodeToString(buf)), nil
}

// HashPasswordWithSalt hashes the password using PBKDF2-SHA512 and salt.
func HashPasswordWithSalt(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha512.New)
	return salt + ":" + hex.EncodeToString(key)
}

// VerifyPassword verifies the password against a "salt:hex(key)" hash.
func VerifyPassword(password, hash string) bool {
	salt, want, ok := strings.Cut(hash, ":")
	if !ok || strings.Contains(want, ":") {
		return false
	}

	got := HashPasswordWithSalt(password, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(salt+":"+want)) == 1
}

// isWellFormedHash reports whether hash has exactly two colon separated
// parts. Malformed hashes cannot be verified and are not checked.
func isWellFormedHash(hash string) bool {
	return len(strings.Split(hash, ":")) == 2
}

// GenerateToken returns a random unique token.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(buf), nil
}

// HashToken hashes the token using sha256.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
