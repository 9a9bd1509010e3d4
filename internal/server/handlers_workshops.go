package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/educates/lookup-service/internal/broker"
	"github.com/educates/lookup-service/internal/portal"
)

type workshopsResponse struct {
	Workshops []broker.Workshop `json:"workshops"`
}

// writeBrokerError maps the broker error taxonomy onto response status
// codes. Availability failures deliberately map to 503 rather than 404 to
// signal a transient condition worth retrying.
func writeBrokerError(w http.ResponseWriter, err error) {
	var validationErr *broker.ValidationError
	if errors.As(err, &validationErr) {
		http.Error(w, validationErr.Message, http.StatusBadRequest)
		return
	}

	var authorizationErr *broker.AuthorizationError
	if errors.As(err, &authorizationErr) {
		http.Error(w, authorizationErr.Message, http.StatusForbidden)
		return
	}

	var availabilityErr *broker.AvailabilityError
	if errors.As(err, &availabilityErr) {
		http.Error(w, availabilityErr.Message, http.StatusServiceUnavailable)
		return
	}

	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// GetWorkshops returns the workshops available to a tenant. Callers with
// only the tenant role must name a tenant they are allowed to access;
// admin callers may omit the tenant to list workshops across every cluster.
func (s *Server) GetWorkshops(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := LoggerFromContext(ctx)

	client, _ := RemoteClientFromContext(ctx)
	clientRoles := ClientRolesFromContext(ctx)

	tenantName := r.URL.Query().Get("tenant")

	if slices.Contains(clientRoles, "tenant") {
		if tenantName == "" {
			logger.Warn("missing tenant name in request", "client", client.Name)
			http.Error(w, "Missing tenant name", http.StatusBadRequest)
			return
		}

		if !client.AllowedAccessToTenant(tenantName) {
			http.Error(w, "Client not allowed access to tenant", http.StatusForbidden)
			return
		}
	}

	workshops, err := s.broker.ListWorkshops(tenantName)
	if err != nil {
		writeBrokerError(w, err)
		return
	}

	if workshops == nil {
		workshops = []broker.Workshop{}
	}

	writeJSON(w, http.StatusOK, &workshopsResponse{Workshops: workshops})
}

type workshopParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type requestWorkshopBody struct {
	TenantName       string          `json:"tenantName"`
	WorkshopName     string          `json:"workshopName"`
	WorkshopParams   []workshopParam `json:"workshopParams"`
	ClientUserID     string          `json:"clientUserId"`
	ClientIndexURL   string          `json:"clientIndexUrl"`
	ClientActionID   string          `json:"clientActionId"`
	UserEmailAddress string          `json:"userEmailAddress"`
	UserFirstName    string          `json:"userFirstName"`
	UserLastName     string          `json:"userLastName"`
	AnalyticsWebhook string          `json:"analyticsWebhookUrl"`
}

// RequestWorkshop allocates or reuses a workshop session for the caller and
// returns its descriptor.
func (s *Server) RequestWorkshop(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	client, _ := RemoteClientFromContext(ctx)
	claims, _ := TokenClaimsFromContext(ctx)

	var body requestWorkshopBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// The user identity for the session comes from the delegation claim
	// when the login was via a proxy assertion, then from any fixed user
	// on the client configuration, then from the request itself.
	userID := claims.User()
	if userID == "" {
		userID = client.User
	}
	if userID == "" {
		userID = body.ClientUserID
	}

	parameters := make([]portal.SessionParameter, 0, len(body.WorkshopParams))
	for _, param := range body.WorkshopParams {
		parameters = append(parameters, portal.SessionParameter{Name: param.Name, Value: param.Value})
	}

	details, err := s.broker.RequestSession(ctx, client, &broker.SessionRequestOptions{
		TenantName:    body.TenantName,
		WorkshopName:  body.WorkshopName,
		UserID:        userID,
		ActionID:      body.ClientActionID,
		IndexURL:      body.ClientIndexURL,
		UserEmail:     body.UserEmailAddress,
		UserFirstName: body.UserFirstName,
		UserLastName:  body.UserLastName,
		Parameters:    parameters,
		AnalyticsURL:  body.AnalyticsWebhook,
	})
	if err != nil {
		writeBrokerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}
