package service

import (
	"context"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
)

// requireActiveUser rejects callers whose account was deleted after their
// token was issued.
func requireActiveUser(ctx context.Context, users domain.UserRepository, userID string) error {
	user, err := users.GetActiveUser(ctx, userID)
	if err != nil {
		return domain.NewInternalError("failed to get user", err)
	}
	if user == nil {
		return domain.NewNotFoundError("user")
	}
	return nil
}
