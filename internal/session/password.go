// Package session implements the master-password and session lifecycle:
// PBKDF2 password hashing and verification, the advisory strength gate, and
// a NONE → ACTIVE → EXPIRED session state machine persisted in the
// session-scoped store.
package session

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 iteration count for the master-password hash.
	Iterations = 100000

	hashSize = 32
	saltSize = 16
)

// specialChars is the accepted symbol set for the strength gate.
const specialChars = `!@#$%^&*()_-+={}[]|\:;"'<>,.?/~` + "`"

// ErrWeakPassword rejects a password failing the local strength gate. The
// gate is advisory — it is not a control against offline brute force.
var ErrWeakPassword = errors.New("password too weak: need at least 8 characters with lower, upper, digit and special")

// HashPassword derives the stored verifier for a password and salt with
// PBKDF2-SHA256. The plaintext is never persisted.
func HashPassword(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, hashSize, sha256.New)
}

// VerifyPassword recomputes the hash and compares in constant time.
func VerifyPassword(password string, salt, hash []byte) bool {
	candidate := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

// CheckStrength applies the local password gate: length ≥ 8 and at least one
// lower-case letter, upper-case letter, digit and special character.
func CheckStrength(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}

	if !lower || !upper || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}
