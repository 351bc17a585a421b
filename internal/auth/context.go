package auth

import (
	"context"

	"github.com/gundersenerik/dice/internal/models"
)

type contextKey string

const userKey contextKey = "user"

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}
