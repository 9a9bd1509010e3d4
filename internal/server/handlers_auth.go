package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/educates/lookup-service/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

// Login validates the supplied credentials and returns a session token. The
// password field carries either the client's real password or, for clients
// configured with a proxy issuer, a delegated proxy assertion.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFromContext(r.Context())

	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if body.Username == "" {
		http.Error(w, "No username provided", http.StatusBadRequest)
		return
	}

	if body.Password == "" {
		http.Error(w, "No password provided", http.StatusBadRequest)
		return
	}

	if client, ok := s.state.AuthenticateClient(body.Username, body.Password); ok {
		response, err := s.authenticator.IssueToken(client, 0, "")
		if err != nil {
			logger.Error("failed to issue token", "client", client.Name, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, response)
		return
	}

	client, ok := s.state.ClientDatabase.Get(body.Username)
	if !ok {
		http.Error(w, "Invalid username/password", http.StatusUnauthorized)
		return
	}

	if client.ProxySecret != "" {
		user, expiresAt, err := s.authenticator.VerifyProxyAssertion(client, body.Password)
		if err != nil {
			logger.Warn("proxy assertion rejected", "client", client.Name, "error", err)
			http.Error(w, proxyErrorMessage(err), http.StatusUnauthorized)
			return
		}

		response, err := s.authenticator.IssueToken(client, expiresAt, user)
		if err != nil {
			logger.Error("failed to issue token", "client", client.Name, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, response)
		return
	}

	http.Error(w, "Invalid username/password", http.StatusUnauthorized)
}

func proxyErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrProxyMissingUser):
		return "Proxy token missing user"
	case errors.Is(err, auth.ErrProxyMissingClaim):
		return "Missing required claim in proxy token"
	case errors.Is(err, auth.ErrProxyInvalidIssuer):
		return "Invalid proxy token issuer"
	case errors.Is(err, auth.ErrProxyIssuedFuture):
		return "Proxy token issued in the future"
	case errors.Is(err, auth.ErrProxyNotYetActive):
		return "Proxy token not yet active"
	case errors.Is(err, auth.ErrProxyExpired):
		return "Proxy has expired"
	}
	return "Invalid proxy token"
}

// Logout revokes every token previously issued to the calling client.
// Delegated proxy sessions cannot log out since that would revoke the
// tokens of every user delegated through the same client.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "Token no longer valid", http.StatusUnauthorized)
		return
	}

	if claims.Act != nil {
		http.Error(w, "Logout not supported for proxy tokens", http.StatusBadRequest)
		return
	}

	client.RevokeTokens()

	writeJSON(w, http.StatusOK, map[string]any{})
}

// Verify confirms that the caller holds a valid session token. The login
// guard has already done all the work by the time this runs.
func (s *Server) Verify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{})
}
