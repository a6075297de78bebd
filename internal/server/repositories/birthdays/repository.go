package birthdays

import (
	"context"
	"time"

	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/models"
)

// Repository is the read/write contract the sync reconciler and the CRUD
// service need from the birthday store. All lookups are scoped by the owning
// user; records of other users are invisible even on id collision.
type Repository interface {
	// Get returns the record with the given id owned by userID, including
	// tombstones, or common.ErrorNotFound.
	Get(ctx context.Context, id string, userID string) (*models.Birthday, error)

	// GetForUpdate behaves like Get but locks the row for the duration of
	// the surrounding transaction, so a concurrent sync cannot accept a
	// write based on a stale read.
	GetForUpdate(ctx context.Context, id string, userID string) (*models.Birthday, error)

	// ListActive returns the user's non-deleted records ordered by month,
	// then day.
	ListActive(ctx context.Context, userID string) ([]*models.Birthday, error)

	Insert(ctx context.Context, b *models.Birthday) error
	Update(ctx context.Context, b *models.Birthday) error

	// SelectChangedSince returns every record of the user whose server
	// modification time is strictly greater than since, tombstones included.
	SelectChangedSince(ctx context.Context, userID string, since time.Time) ([]*models.Birthday, error)
}
