package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MintToken signs a credential for the given identity. Production tokens
// come from the identity subsystem; this exists for tests and local setups
// that share the secret.
func MintToken(secret string, identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := identityClaims{
		DisplayName: identity.DisplayName,
		Role:        identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
