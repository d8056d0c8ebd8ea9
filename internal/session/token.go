package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errTokenExpired = errors.New("session token expired")
var errTokenInvalid = errors.New("session token invalid")

// generateToken issues the signed session token carried inside the session
// marker: an HS256 JWT with issued-at and expiry claims. The signing secret
// is the stored password verifier, so a marker cannot be fabricated or have
// its lifetime stretched by editing the ephemeral store.
func generateToken(secret []byte, created time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(created),
		ExpiresAt: jwt.NewNumericDate(created.Add(ttl)),
	})
	return token.SignedString(secret)
}

// validateToken parses and verifies a session token, returning the issue
// time on success.
func validateToken(tokenString string, secret []byte) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return time.Time{}, errTokenExpired
		}
		return time.Time{}, errTokenInvalid
	}
	if !token.Valid || claims.IssuedAt == nil {
		return time.Time{}, errTokenInvalid
	}
	return claims.IssuedAt.Time, nil
}
