package refreshtokens

import (
	"context"
	"time"

	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error
	FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time, revokedBefore time.Time) (int64, error)
}
