package middleware

import (
	"context"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/usecase/session"
)

type contextKey int

const (
	identityKey contextKey = iota
	sessionKey
)

// IdentityFrom returns the authenticated identity of the request, if any
func IdentityFrom(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(identityKey).(domain.Identity)
	return identity
}

// WithIdentity attaches identity to ctx
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// SessionFrom returns the shopper session attached by the Session middleware
func SessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

// WithSession attaches sess to ctx
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}
