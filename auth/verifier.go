package auth

import (
	"github.com/golang-jwt/jwt/v5"

	apperrors "parley/pkg/errors"
)

// Identity is the verified caller, as asserted by the identity subsystem.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Verifier validates an opaque bearer credential. Both the HTTP layer and
// the connection layer admit callers through this one contract.
type Verifier interface {
	Verify(credential string) (Identity, error)
}

// TokenVerifier verifies HMAC-signed bearer tokens issued by the identity
// subsystem with the shared secret. Stateless.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

type identityClaims struct {
	DisplayName string `json:"name"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// Verify parses and validates the credential. Every failure mode (missing,
// malformed, expired, bad signature) collapses into the same error so
// callers learn nothing about which check tripped.
func (v *TokenVerifier) Verify(credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, apperrors.ErrInvalidCredential
	}

	token, err := jwt.ParseWithClaims(credential, &identityClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, apperrors.ErrInvalidCredential
	}

	claims, ok := token.Claims.(*identityClaims)
	if !ok || claims.Subject == "" {
		return Identity{}, apperrors.ErrInvalidCredential
	}

	return Identity{
		ID:          claims.Subject,
		DisplayName: claims.DisplayName,
		Role:        claims.Role,
	}, nil
}
