package middleware

import (
	"context"
	"net/http"
	"strings"

	"parley/auth"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Auth rejects any request without a valid bearer credential and injects the
// verified identity into the request context.
func Auth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Verify(BearerToken(r))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"error":{"kind":"UNAUTHENTICATED","message":"invalid or expired credential"}}`))
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the verified identity, if any.
func IdentityFromContext(r *http.Request) (auth.Identity, bool) {
	identity, ok := r.Context().Value(identityContextKey).(auth.Identity)
	return identity, ok
}

// BearerToken extracts the credential from the Authorization header, falling
// back to the token query parameter for websocket upgrades, where browsers
// cannot set headers.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
