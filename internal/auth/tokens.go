package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/educates/lookup-service/internal/cache"
)

// TokenExpiration is the default lifetime of an issued session token.
const TokenExpiration = 72 * time.Hour

// Session token verification failures, each reported to the caller with a
// distinct message.
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Proxy assertion validation failures.
var (
	ErrProxyMissingUser   = errors.New("proxy token missing user")
	ErrProxyMissingClaim  = errors.New("missing required claim in proxy token")
	ErrProxyInvalidIssuer = errors.New("invalid proxy token issuer")
	ErrProxyIssuedFuture  = errors.New("proxy token issued in the future")
	ErrProxyNotYetActive  = errors.New("proxy token not yet active")
	ErrProxyExpired       = errors.New("proxy token has expired")
	ErrProxyInvalid       = errors.New("invalid proxy token")
)

// Actor identifies an impersonated end user carried in a session token when
// the client logged in with a delegated proxy assertion.
type Actor struct {
	Subject string `json:"sub"`
}

// TokenClaims are the claims carried by a session token. The subject is the
// client name and the token id is the client's stable identity so the token
// can be tied back to the exact client resource that issued it.
type TokenClaims struct {
	jwt.RegisteredClaims

	Act *Actor `json:"act,omitempty"`
}

// User returns the impersonated user identity, if any.
func (c *TokenClaims) User() string {
	if c.Act == nil {
		return ""
	}
	return c.Act.Subject
}

// LoginResponse is the response body of a successful login. It bundles the
// token type and expiry so clients do not need to parse the token itself.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Authenticator issues and verifies session tokens. All tokens are signed
// with a single shared secret using HMAC-SHA256 and carry the service's own
// base URL as the issuer.
type Authenticator struct {
	issuer string
	secret []byte
}

func NewAuthenticator(issuer string, secret []byte) *Authenticator {
	return &Authenticator{issuer: issuer, secret: secret}
}

// Issuer returns the issuer recorded in tokens the authenticator signs.
func (a *Authenticator) Issuer() string {
	return a.issuer
}

// IssueToken generates a session token for the client. When expiresAt is
// zero the default expiration applies. A non-empty user records a delegated
// end-user identity in the token.
func (a *Authenticator) IssueToken(client *cache.ClientConfig, expiresAt int64, user string) (*LoginResponse, error) {
	now := time.Now()

	if expiresAt == 0 {
		expiresAt = now.Add(TokenExpiration).Unix()
	}

	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   client.Name,
			ID:        client.Identity(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(time.Unix(expiresAt, 0)),
		},
	}

	if user != "" {
		claims.Act = &Actor{Subject: user}
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// VerifyToken decodes and validates a session token, checking the
// signature, issuer and expiry. Expired tokens are distinguished from
// otherwise invalid ones.
func (a *Authenticator) VerifyToken(raw string) (*TokenClaims, error) {
	claims := &TokenClaims{}

	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// VerifyProxyAssertion decodes and validates a delegated proxy assertion
// presented in place of a password. The assertion must be signed with the
// client's configured proxy secret and carry the client's configured
// issuer. The subject becomes the delegated user identity and the expiry,
// when present, bounds the resulting session token.
func (a *Authenticator) VerifyProxyAssertion(client *cache.ClientConfig, assertion string) (user string, expiresAt int64, err error) {
	claims := &jwt.RegisteredClaims{}

	_, err = jwt.ParseWithClaims(assertion, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(client.ProxySecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(client.Issuer),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
			return "", 0, ErrProxyMissingClaim
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return "", 0, ErrProxyInvalidIssuer
		case errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
			return "", 0, ErrProxyIssuedFuture
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return "", 0, ErrProxyNotYetActive
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", 0, ErrProxyExpired
		}
		return "", 0, ErrProxyInvalid
	}

	if claims.Subject == "" {
		return "", 0, ErrProxyMissingUser
	}

	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Unix()
	}

	return claims.Subject, expiresAt, nil
}
