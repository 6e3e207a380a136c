package auth

import (
	"context"
)

// Context keys for auth-related values.
type contextKey int

const (
	sessionKey contextKey = iota
	tenantKey
)

// WithSession returns a new context carrying the session used to build
// request headers. Set it once at the call site.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext retrieves the session from the context.
// Returns the signed-out session if none is present.
func SessionFromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey).(Session)
	return s
}

// TokenFromContext retrieves the bearer token from the context.
// Returns empty string if no session is present.
func TokenFromContext(ctx context.Context) string {
	return SessionFromContext(ctx).Token
}

// RoleFromContext retrieves the role from the context.
// Returns empty role if no session is present.
func RoleFromContext(ctx context.Context) Role {
	return SessionFromContext(ctx).Role
}

// WithTenantHost returns a new context carrying the host used for tenant
// resolution. It overrides the client's configured tenant host.
func WithTenantHost(ctx context.Context, host string) context.Context {
	return context.WithValue(ctx, tenantKey, host)
}

// TenantHostFromContext retrieves the tenant host from the context.
// Returns empty string if not set.
func TenantHostFromContext(ctx context.Context) string {
	h, _ := ctx.Value(tenantKey).(string)
	return h
}
