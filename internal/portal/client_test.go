package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educates/lookup-service/internal/cache"
)

// fakePortal serves the portal REST endpoints a session request touches:
// the password grant and the environment request or session reacquire
// calls.
type fakePortal struct {
	t *testing.T

	tokenRequests   int
	sessionRequests []SessionRequest
	reacquired      []string

	sessionResponse map[string]any
}

func (p *fakePortal) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /oauth2/token/", func(w http.ResponseWriter, r *http.Request) {
		p.tokenRequests++

		clientID, clientSecret, ok := r.BasicAuth()
		require.True(p.t, ok)
		assert.Equal(p.t, "robot-id", clientID)
		assert.Equal(p.t, "robot-secret", clientSecret)

		require.NoError(p.t, r.ParseForm())
		assert.Equal(p.t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(p.t, "robot@educates", r.PostForm.Get("username"))
		assert.Equal(p.t, "robot-password", r.PostForm.Get("password"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "portal-token",
			"expires_in":   3600,
		})
	})

	mux.HandleFunc("POST /workshops/environment/{name}/request/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(p.t, "Bearer portal-token", r.Header.Get("Authorization"))

		var request SessionRequest
		require.NoError(p.t, json.NewDecoder(r.Body).Decode(&request))
		p.sessionRequests = append(p.sessionRequests, request)

		_ = json.NewEncoder(w).Encode(p.sessionResponse)
	})

	mux.HandleFunc("GET /workshops/session/{name}/reacquire/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(p.t, "Bearer portal-token", r.Header.Get("Authorization"))

		p.reacquired = append(p.reacquired, r.PathValue("name")+"|"+r.URL.Query().Get("index_url"))

		_ = json.NewEncoder(w).Encode(p.sessionResponse)
	})

	return mux
}

func fixturePortal(url string) *cache.Portal {
	return &cache.Portal{
		Name:    "portal-1",
		Cluster: "east",
		URL:     url,
		Credentials: cache.PortalCredentials{
			ClientID:     "robot-id",
			ClientSecret: "robot-secret",
			Username:     "robot@educates",
			Password:     "robot-password",
		},
	}
}

func TestRequestWorkshopSession(t *testing.T) {
	fake := &fakePortal{t: t, sessionResponse: map[string]any{
		"name":        "env-1-s001",
		"url":         "/workshops/session/env-1-s001/activate/",
		"workshop":    "lab-intro",
		"environment": "env-1",
	}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := NewClient(server.Client())

	details, err := client.RequestWorkshopSession(context.Background(),
		fixturePortal(server.URL),
		&cache.Environment{Name: "env-1", Cluster: "east", Portal: "portal-1"},
		&SessionRequest{UserID: "alice", IndexURL: "https://hub.test/"})
	require.NoError(t, err)

	assert.Equal(t, "env-1-s001", details.Name)
	assert.Equal(t, "lab-intro", details.Workshop)

	require.Len(t, fake.sessionRequests, 1)
	assert.Equal(t, "alice", fake.sessionRequests[0].UserID)
	assert.Equal(t, "https://hub.test/", fake.sessionRequests[0].IndexURL)
}

func TestRequestWorkshopSessionRefused(t *testing.T) {
	fake := &fakePortal{t: t, sessionResponse: map[string]any{
		"error": "environment has no capacity",
	}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := NewClient(server.Client())

	_, err := client.RequestWorkshopSession(context.Background(),
		fixturePortal(server.URL),
		&cache.Environment{Name: "env-1", Cluster: "east", Portal: "portal-1"},
		&SessionRequest{UserID: "alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment has no capacity")
}

func TestRequestWorkshopSessionMissingName(t *testing.T) {
	fake := &fakePortal{t: t, sessionResponse: map[string]any{}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := NewClient(server.Client())

	_, err := client.RequestWorkshopSession(context.Background(),
		fixturePortal(server.URL),
		&cache.Environment{Name: "env-1", Cluster: "east", Portal: "portal-1"},
		&SessionRequest{UserID: "alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing session name")
}

func TestReacquireWorkshopSession(t *testing.T) {
	fake := &fakePortal{t: t, sessionResponse: map[string]any{
		"name": "env-1-s042",
		"url":  "/workshops/session/env-1-s042/activate/",
	}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := NewClient(server.Client())

	details, err := client.ReacquireWorkshopSession(context.Background(),
		fixturePortal(server.URL), "env-1-s042", "https://hub.test/")
	require.NoError(t, err)

	assert.Equal(t, "env-1-s042", details.Name)
	assert.Equal(t, []string{"env-1-s042|https://hub.test/"}, fake.reacquired)
}

func TestAccessTokenIsCachedPerPortal(t *testing.T) {
	fake := &fakePortal{t: t, sessionResponse: map[string]any{
		"name": "env-1-s001",
	}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := NewClient(server.Client())
	environment := &cache.Environment{Name: "env-1", Cluster: "east", Portal: "portal-1"}

	for range 3 {
		_, err := client.RequestWorkshopSession(context.Background(),
			fixturePortal(server.URL), environment, &SessionRequest{UserID: "alice"})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, fake.tokenRequests)
}

func TestTokenRequestFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.Client())

	_, err := client.RequestWorkshopSession(context.Background(),
		fixturePortal(server.URL),
		&cache.Environment{Name: "env-1", Cluster: "east", Portal: "portal-1"},
		&SessionRequest{UserID: "alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token request")
}
