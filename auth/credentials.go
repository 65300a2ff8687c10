package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// absentSecret is compared against when the username is unknown so that a
// miss costs roughly the same as a wrong password.
const absentSecret = "absent-credential-placeholder"

// Credentials is the immutable table of username -> secret pairs accepted by
// the client_credentials grant. A secret is either plaintext or a bcrypt hash.
type Credentials struct {
	secrets map[string]string
}

// NewCredentials copies table so later changes to the caller's map are not seen.
func NewCredentials(table map[string]string) *Credentials {
	secrets := make(map[string]string, len(table))
	for user, secret := range table {
		secrets[user] = secret
	}
	return &Credentials{secrets: secrets}
}

// Check reports whether password is the secret registered for username.
// The comparison is constant time in the password.
func (c *Credentials) Check(username, password string) bool {
	expected, ok := c.secrets[username]
	if !ok {
		expected = absentSecret
	}
	match := compareSecret(expected, password)
	return ok && match
}

// Len returns the number of registered credentials.
func (c *Credentials) Len() int {
	return len(c.secrets)
}

// HashSecret bcrypt-hashes a plaintext secret for storage in the credential table.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func compareSecret(expected, given string) bool {
	if isBcryptHash(expected) {
		return bcrypt.CompareHashAndPassword([]byte(expected), []byte(given)) == nil
	}
	// Hash both sides so the comparison does not leak the secret's length.
	e := sha256.Sum256([]byte(expected))
	g := sha256.Sum256([]byte(given))
	return subtle.ConstantTimeCompare(e[:], g[:]) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
