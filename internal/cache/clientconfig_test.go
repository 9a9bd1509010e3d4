package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(tenants, roles []string) *ClientConfig {
	return NewClientConfig("portal-client", "uid-1234", "secret", "", "", "", tenants, roles)
}

func TestClientConfigCheckPassword(t *testing.T) {
	client := newTestClient(nil, nil)

	assert.True(t, client.CheckPassword("secret"))
	assert.False(t, client.CheckPassword("wrong"))
}

func TestClientConfigValidateIdentity(t *testing.T) {
	client := newTestClient(nil, nil)

	assert.True(t, client.ValidateIdentity("uid-1234"))
	assert.False(t, client.ValidateIdentity("uid-other"))
}

func TestClientConfigTimeWindow(t *testing.T) {
	client := newTestClient(nil, nil)

	issuedAt := time.Now().Unix()
	assert.True(t, client.ValidateTimeWindow(issuedAt))

	// Tokens issued before registration are always outside the window.
	assert.False(t, client.ValidateTimeWindow(client.StartTime()-10))
}

func TestClientConfigRevokeTokens(t *testing.T) {
	client := newTestClient(nil, nil)

	issuedAt := client.StartTime()
	assert.True(t, client.ValidateTimeWindow(issuedAt))

	// Make sure the watermark actually moves forward.
	client.start.Store(issuedAt - 100)
	assert.True(t, client.ValidateTimeWindow(issuedAt-100))

	client.RevokeTokens()

	assert.False(t, client.ValidateTimeWindow(issuedAt-100))
	assert.True(t, client.ValidateTimeWindow(client.StartTime()))
}

func TestClientConfigHasRequiredRole(t *testing.T) {
	tests := []struct {
		name     string
		held     []string
		required []string
		matched  []string
	}{
		{
			name:     "single match",
			held:     []string{"tenant"},
			required: []string{"admin", "tenant"},
			matched:  []string{"tenant"},
		},
		{
			name:     "multiple matches",
			held:     []string{"admin", "tenant"},
			required: []string{"admin", "tenant"},
			matched:  []string{"admin", "tenant"},
		},
		{
			name:     "no match",
			held:     []string{"observer"},
			required: []string{"admin", "tenant"},
			matched:  nil,
		},
		{
			name:     "no roles held",
			held:     nil,
			required: []string{"admin"},
			matched:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(nil, tt.held)
			assert.Equal(t, tt.matched, client.HasRequiredRole(tt.required...))
		})
	}
}

func TestClientConfigAllowedAccessToTenant(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		tenant   string
		allowed  bool
	}{
		{
			name:     "wildcard prefix",
			patterns: []string{"team-*"},
			tenant:   "team-a",
			allowed:  true,
		},
		{
			name:     "no match",
			patterns: []string{"team-*"},
			tenant:   "other",
			allowed:  false,
		},
		{
			name:     "exact match",
			patterns: []string{"team-a"},
			tenant:   "team-a",
			allowed:  true,
		},
		{
			name:     "single character wildcard",
			patterns: []string{"team-?"},
			tenant:   "team-a",
			allowed:  true,
		},
		{
			name:     "bracket set",
			patterns: []string{"team-[ab]"},
			tenant:   "team-c",
			allowed:  false,
		},
		{
			name:     "second pattern matches",
			patterns: []string{"group-*", "team-*"},
			tenant:   "team-a",
			allowed:  true,
		},
		{
			name:     "empty pattern list",
			patterns: nil,
			tenant:   "team-a",
			allowed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(tt.patterns, nil)
			assert.Equal(t, tt.allowed, client.AllowedAccessToTenant(tt.tenant))
		})
	}
}
