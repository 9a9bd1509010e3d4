package server

import "net/http"

// LoginRequired wraps a handler with the guard verifying that the request
// carries a valid session token belonging to a still-registered client.
// The token must name a client present in the client database, the client's
// stable identity must match the token, and the token must have been issued
// after the client's current revocation watermark.
func (s *Server) LoginRequired(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, ok := TokenClaimsFromContext(ctx)
		if !ok {
			http.Error(w, "JWT token not supplied", http.StatusBadRequest)
			return
		}

		client, ok := s.state.ClientDatabase.Get(claims.Subject)
		if !ok {
			http.Error(w, "Client details not found", http.StatusUnauthorized)
			return
		}

		if !client.ValidateIdentity(claims.ID) {
			http.Error(w, "Client identity does not match", http.StatusUnauthorized)
			return
		}

		var issuedAt int64
		if claims.IssuedAt != nil {
			issuedAt = claims.IssuedAt.Unix()
		}

		if !client.ValidateTimeWindow(issuedAt) {
			http.Error(w, "Token issued outside time window", http.StatusUnauthorized)
			return
		}

		handler(w, r.WithContext(ContextWithRemoteClient(ctx, client)))
	}
}

// RolesAccepted wraps a handler with the guard checking that the
// authenticated client holds at least one of the given roles. The matched
// subset is recorded on the context for handlers that branch on role.
func (s *Server) RolesAccepted(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(handler http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			client, ok := RemoteClientFromContext(ctx)
			if !ok {
				http.Error(w, "Client details not found", http.StatusUnauthorized)
				return
			}

			matched := client.HasRequiredRole(roles...)
			if len(matched) == 0 {
				http.Error(w, "Client access not permitted", http.StatusForbidden)
				return
			}

			handler(w, r.WithContext(ContextWithClientRoles(ctx, matched)))
		}
	}
}
