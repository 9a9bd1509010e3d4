package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/educates/lookup-service/internal/auth"
)

// tokenMiddleware extracts and decodes a bearer session token from the
// Authorization header when one is present. The decoded claims are stored
// on the request context for the route guards; a request without an
// Authorization header passes through untouched and is rejected later by
// any guard that needs a login.
type tokenMiddleware struct {
	authenticator *auth.Authenticator
}

func (m *tokenMiddleware) Middleware() MiddlewareFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		authorization := r.Header.Get("Authorization")

		if authorization == "" {
			next(w, r)
			return
		}

		parts := strings.Fields(authorization)

		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "Invalid Authorization header", http.StatusBadRequest)
			return
		}

		claims, err := m.authenticator.VerifyToken(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				http.Error(w, "JWT token has expired", http.StatusUnauthorized)
			} else {
				http.Error(w, "JWT token is invalid", http.StatusUnauthorized)
			}
			return
		}

		next(w, r.WithContext(ContextWithTokenClaims(r.Context(), claims)))
	}
}
