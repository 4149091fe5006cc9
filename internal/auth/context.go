package auth

import (
	"context"

	"github.com/claude/ironpulse/internal/models"
)

type contextKey int

const userKey contextKey = iota

// WithUser returns a context carrying the acting user.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext extracts the user injected by the transport layer.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	if !ok || !u.Valid() {
		return models.User{}, false
	}
	return u, true
}
