package server

import (
	"context"
	"log/slog"

	"github.com/educates/lookup-service/internal/auth"
	"github.com/educates/lookup-service/internal/cache"
)

type contextKey int

const (
	contextKeyLogger contextKey = iota
	contextKeyTokenClaims
	contextKeyRemoteClient
	contextKeyClientRoles
)

func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// LoggerFromContext returns the request-scoped logger, falling back to the
// default logger so callers never receive nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKeyLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

func ContextWithTokenClaims(ctx context.Context, claims *auth.TokenClaims) context.Context {
	return context.WithValue(ctx, contextKeyTokenClaims, claims)
}

// TokenClaimsFromContext returns the decoded session token claims when the
// request carried a valid Authorization header.
func TokenClaimsFromContext(ctx context.Context) (*auth.TokenClaims, bool) {
	claims, ok := ctx.Value(contextKeyTokenClaims).(*auth.TokenClaims)
	return claims, ok
}

func ContextWithRemoteClient(ctx context.Context, client *cache.ClientConfig) context.Context {
	return context.WithValue(ctx, contextKeyRemoteClient, client)
}

// RemoteClientFromContext returns the authenticated client once the login
// guard has run.
func RemoteClientFromContext(ctx context.Context) (*cache.ClientConfig, bool) {
	client, ok := ctx.Value(contextKeyRemoteClient).(*cache.ClientConfig)
	return client, ok
}

func ContextWithClientRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, contextKeyClientRoles, roles)
}

// ClientRolesFromContext returns the subset of required roles the client
// holds, as recorded by the role guard.
func ClientRolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(contextKeyClientRoles).([]string)
	return roles
}
