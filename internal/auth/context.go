// Package auth resolves the calling user from a request and carries it in the
// request context.
package auth

import (
	"context"
	"strings"
)

type ctxKey int

const identityKey ctxKey = iota

// Identity is the resolved caller.
type Identity struct {
	UserID string
	// Source names the resolver that produced the identity: header, query,
	// legacy, token or session.
	Source string
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity stored by the middleware, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

// UserID returns the resolved user id, or fallback when no identity was
// resolved for the request.
func UserID(ctx context.Context, fallback string) string {
	if id, ok := FromContext(ctx); ok {
		return id.UserID
	}
	return strings.TrimSpace(fallback)
}
