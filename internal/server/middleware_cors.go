package server

import (
	"net/http"

	"github.com/educates/lookup-service/internal/auth"
	"github.com/educates/lookup-service/internal/cache"
)

// corsMiddleware applies the browser origin policy. An origin is permitted
// only when it matches a pattern in the union of the currently configured
// allow-lists; the policy therefore follows the access configuration
// resources with no restart.
type corsMiddleware struct {
	state *cache.ServiceState
}

func (m *corsMiddleware) Middleware() MiddlewareFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		allowedOrigins := m.state.AllowedOrigins()

		requestOrigin := r.Header.Get("Origin")

		accessPermitted := len(allowedOrigins) > 0 && auth.OriginIsAllowed(requestOrigin, allowedOrigins)

		if accessPermitted {
			header := w.Header()
			header.Set("Access-Control-Allow-Origin", requestOrigin)
			header.Set("Access-Control-Allow-Credentials", "true")
			header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}
