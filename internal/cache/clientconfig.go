package cache

import (
	"sync/atomic"
	"time"

	"github.com/gobwas/glob"
)

// ClientConfig holds the configuration for one registered API client of the
// lookup service, mirrored from a ClientConfig custom resource.
type ClientConfig struct {
	// Name is the resource name and the login username for the client.
	Name string

	// UID is the stable identity of the client. Tokens record it in the
	// "jti" claim and are rejected if the resource is recreated with a
	// different UID.
	UID string

	// Password is the shared secret for password logins. Empty when the
	// client only supports proxy logins.
	Password string

	// User is a fixed impersonated user identity for the client. When set
	// it takes precedence over any user id supplied in a request.
	User string

	// Issuer and ProxySecret configure delegated proxy logins. The
	// "password" supplied at login is then a JWT assertion signed with
	// ProxySecret and carrying Issuer as its issuer.
	Issuer      string
	ProxySecret string

	// Tenants is the list of glob patterns naming the tenants this client
	// may broker sessions for.
	Tenants []string

	// Roles the client holds, e.g. "admin" or "tenant".
	Roles []string

	// start is the revocation watermark in unix seconds. Tokens issued
	// before it are rejected. Updated atomically so that revocation is
	// immediately visible to concurrent verifications.
	start atomic.Int64
}

func NewClientConfig(name, uid, password, user, issuer, proxySecret string, tenants, roles []string) *ClientConfig {
	c := &ClientConfig{
		Name:        name,
		UID:         uid,
		Password:    password,
		User:        user,
		Issuer:      issuer,
		ProxySecret: proxySecret,
		Tenants:     tenants,
		Roles:       roles,
	}
	c.start.Store(time.Now().Unix())
	return c
}

// Identity returns the stable identity of the client.
func (c *ClientConfig) Identity() string {
	return c.UID
}

// StartTime returns the current revocation watermark in unix seconds.
func (c *ClientConfig) StartTime() int64 {
	return c.start.Load()
}

// RevokeTokens invalidates every previously issued token by moving the
// revocation watermark to now.
func (c *ClientConfig) RevokeTokens() {
	c.start.Store(time.Now().Unix())
}

// CheckPassword checks the supplied password against the client's password.
func (c *ClientConfig) CheckPassword(password string) bool {
	return c.Password == password
}

// ValidateIdentity checks the supplied identity against the client's identity.
func (c *ClientConfig) ValidateIdentity(identity string) bool {
	return c.Identity() == identity
}

// ValidateTimeWindow reports whether a token issued at the given unix time
// is still inside the allowed window, i.e. was not issued before the
// revocation watermark.
func (c *ClientConfig) ValidateTimeWindow(issuedAt int64) bool {
	return issuedAt >= c.start.Load()
}

// HasRequiredRole returns the subset of the given roles which the client
// actually holds. An empty result means the client is not authorized.
func (c *ClientConfig) HasRequiredRole(roles ...string) []string {
	var matched []string
	for _, role := range roles {
		for _, held := range c.Roles {
			if role == held {
				matched = append(matched, role)
				break
			}
		}
	}
	return matched
}

// AllowedAccessToTenant reports whether the client may access the named
// tenant. The client's tenant list is a list of glob patterns and the first
// match wins.
func (c *ClientConfig) AllowedAccessToTenant(tenant string) bool {
	for _, pattern := range c.Tenants {
		g, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		if g.Match(tenant) {
			return true
		}
	}
	return false
}
