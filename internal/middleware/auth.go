package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/trip-planner/internal/auth"
)

// TokenVerifier resolves a bearer token into the caller's identity.
// *auth.TokenService satisfies it.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the verified identity in the request context for handlers to read
// with auth.IdentityFrom.
func RequireAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Verify(BearerToken(r))
			if err != nil {
				writeError(w, http.StatusUnauthorized, authMessage(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
// It returns "" when the header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenMissing):
		return "Authentication required"
	case errors.Is(err, auth.ErrTokenExpired):
		return "Session expired, please log in again"
	default:
		return "Invalid token"
	}
}
