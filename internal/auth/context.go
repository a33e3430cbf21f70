package auth

import (
	"context"

	"github.com/xvierd/focusflow/internal/domain"
)

type ctxKey string

const userContextKey ctxKey = "focusflow.auth.user"

func withUserContext(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the user attached by RequireAPI.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userContextKey).(*domain.User)
	return u, ok && u != nil
}

// WithUser attaches u to ctx, as RequireAPI does.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return withUserContext(ctx, u)
}
