// Package portal implements the REST client used to allocate and reacquire
// workshop sessions against a remote training portal. The portal owns the
// authoritative session state machine; this client only asks it for a
// session and relays the answer.
package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/educates/lookup-service/internal/cache"
)

// SessionParameter is one named parameter passed through to the workshop
// session being created.
type SessionParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SessionRequest carries the user and session metadata forwarded to the
// portal when allocating a session.
type SessionRequest struct {
	UserID        string             `json:"user"`
	UserEmail     string             `json:"email,omitempty"`
	UserFirstName string             `json:"first_name,omitempty"`
	UserLastName  string             `json:"last_name,omitempty"`
	Parameters    []SessionParameter `json:"parameters,omitempty"`
	IndexURL      string             `json:"index_url,omitempty"`
	AnalyticsURL  string             `json:"analytics_url,omitempty"`
}

// SessionDetails is the session descriptor returned by a portal. TenantName
// is not part of the portal response; the broker injects it before the
// descriptor is returned to the caller.
type SessionDetails struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Workshop    string `json:"workshop,omitempty"`
	Environment string `json:"environment,omitempty"`
	TenantName  string `json:"tenantName,omitempty"`
}

// Client is the opaque "allocate session" boundary. A failure from either
// call means the candidate is currently unusable; the broker moves on to
// the next candidate rather than retrying.
type Client interface {
	// RequestWorkshopSession asks the portal to allocate a session in the
	// named environment.
	RequestWorkshopSession(ctx context.Context, portal *cache.Portal, environment *cache.Environment, request *SessionRequest) (*SessionDetails, error)

	// ReacquireWorkshopSession asks the portal to hand back an existing
	// session previously allocated to the user.
	ReacquireWorkshopSession(ctx context.Context, portal *cache.Portal, sessionName, indexURL string) (*SessionDetails, error)
}

type restClient struct {
	httpClient *http.Client

	mutex  sync.Mutex
	tokens map[string]*portalToken
}

type portalToken struct {
	accessToken string
	expiresAt   time.Time
}

// NewClient returns a Client which speaks to portals over their REST API
// using the robot credentials mirrored from each portal resource.
func NewClient(httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &restClient{
		httpClient: httpClient,
		tokens:     make(map[string]*portalToken),
	}
}

func (c *restClient) RequestWorkshopSession(ctx context.Context, portal *cache.Portal, environment *cache.Environment, request *SessionRequest) (*SessionDetails, error) {
	token, err := c.accessToken(ctx, portal)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encoding session request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/workshops/environment/%s/request/", strings.TrimSuffix(portal.URL, "/"), url.PathEscape(environment.Name))

	return c.sessionCall(ctx, http.MethodPost, endpoint, token, strings.NewReader(string(body)))
}

func (c *restClient) ReacquireWorkshopSession(ctx context.Context, portal *cache.Portal, sessionName, indexURL string) (*SessionDetails, error) {
	token, err := c.accessToken(ctx, portal)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/workshops/session/%s/reacquire/", strings.TrimSuffix(portal.URL, "/"), url.PathEscape(sessionName))
	if indexURL != "" {
		endpoint += "?index_url=" + url.QueryEscape(indexURL)
	}

	return c.sessionCall(ctx, http.MethodGet, endpoint, token, nil)
}

func (c *restClient) sessionCall(ctx context.Context, method, endpoint, token string, body io.Reader) (*SessionDetails, error) {
	request, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}

	request.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal returned %s", response.Status)
	}

	var details struct {
		SessionDetails

		Error string `json:"error"`
	}
	if err := json.NewDecoder(response.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("decoding portal response: %w", err)
	}
	if details.Error != "" {
		return nil, fmt.Errorf("portal refused session: %s", details.Error)
	}
	if details.Name == "" {
		return nil, fmt.Errorf("portal response missing session name")
	}

	return &details.SessionDetails, nil
}

// accessToken returns a bearer token for the portal's REST API, requesting
// a fresh one via the password grant when no unexpired token is cached.
func (c *restClient) accessToken(ctx context.Context, portal *cache.Portal) (string, error) {
	c.mutex.Lock()
	cached, ok := c.tokens[portal.Key()]
	c.mutex.Unlock()

	if ok && time.Until(cached.expiresAt) > time.Minute {
		return cached.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", portal.Credentials.Username)
	form.Set("password", portal.Credentials.Password)

	endpoint := strings.TrimSuffix(portal.URL, "/") + "/oauth2/token/"

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}

	request.SetBasicAuth(portal.Credentials.ClientID, portal.Credentials.ClientSecret)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("portal token request returned %s", response.Status)
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(response.Body).Decode(&grant); err != nil {
		return "", fmt.Errorf("decoding portal token response: %w", err)
	}
	if grant.AccessToken == "" {
		return "", fmt.Errorf("portal token response missing access token")
	}

	token := &portalToken{
		accessToken: grant.AccessToken,
		expiresAt:   time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second),
	}

	c.mutex.Lock()
	c.tokens[portal.Key()] = token
	c.mutex.Unlock()

	return token.accessToken, nil
}
