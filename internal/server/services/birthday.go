package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/common"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/dbx"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/models"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/repositories/repomanager"
)

// BirthdayUpsert carries the fields of a direct create or update request.
// Unlike sync changes, all scalar fields are required by the REST contract.
type BirthdayUpsert struct {
	Name               string
	Day                int
	Month              int
	Year               *int
	Phone              *string
	Note               *string
	ContactID          *string
	NotifyEnabled      bool
	NotifyDaysBefore   int
	NotifyTimeMinutes  int
	ClientUpdatedAtUtc time.Time
}

// BirthdayService implements the plain CRUD operations used by the REST
// endpoints. Tombstoned records are invisible to reads here; deletion only
// raises the tombstone so sync can propagate it to other devices.
type BirthdayService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewBirthdayService constructs a BirthdayService over the given DB and repositories.
func NewBirthdayService(db *sql.DB, m repomanager.RepositoryManager) *BirthdayService {
	return &BirthdayService{db: db, repomanager: m}
}

// List returns the user's active records ordered by month, then day.
func (s *BirthdayService) List(ctx context.Context, userID string) ([]*models.Birthday, error) {
	repo := s.repomanager.Birthdays(s.db)
	items, err := repo.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing birthdays: %w", err)
	}
	return items, nil
}

// Get returns one active record or common.ErrorNotFound. Tombstones read as
// not found.
func (s *BirthdayService) Get(ctx context.Context, userID string, id string) (*models.Birthday, error) {
	repo := s.repomanager.Birthdays(s.db)
	b, err := repo.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if b.IsDeleted {
		return nil, common.ErrorNotFound
	}
	return b, nil
}

// Create validates and stores a new record with revision 1.
func (s *BirthdayService) Create(ctx context.Context, userID string, in *BirthdayUpsert) (*models.Birthday, error) {
	if err := validateBirthdayFields(in.Name, in.Day, in.Month, in.NotifyDaysBefore, in.NotifyTimeMinutes); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	b := &models.Birthday{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Name:               strings.TrimSpace(in.Name),
		Day:                in.Day,
		Month:              in.Month,
		Year:               in.Year,
		Phone:              in.Phone,
		Note:               in.Note,
		ContactID:          in.ContactID,
		NotifyEnabled:      in.NotifyEnabled,
		NotifyDaysBefore:   in.NotifyDaysBefore,
		NotifyTimeMinutes:  in.NotifyTimeMinutes,
		Version:            1,
		CreatedAtUtc:       now,
		UpdatedAtUtc:       now,
		ClientUpdatedAtUtc: in.ClientUpdatedAtUtc,
	}

	repo := s.repomanager.Birthdays(s.db)
	if err := repo.Insert(ctx, b); err != nil {
		return nil, fmt.Errorf("error creating birthday: %w", err)
	}
	return b, nil
}

// Update overwrites an active record. A request whose clientUpdatedAtUtc is
// not strictly newer than the stored one is refused with common.ErrConflict
// so an offline device cannot clobber a later edit.
func (s *BirthdayService) Update(ctx context.Context, userID string, id string, in *BirthdayUpsert) (*models.Birthday, error) {
	if err := validateBirthdayFields(in.Name, in.Day, in.Month, in.NotifyDaysBefore, in.NotifyTimeMinutes); err != nil {
		return nil, err
	}

	var updated *models.Birthday
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Birthdays(tx)

		b, err := repo.GetForUpdate(ctx, id, userID)
		if err != nil {
			return err
		}
		if b.IsDeleted {
			return common.ErrorNotFound
		}
		if !in.ClientUpdatedAtUtc.After(b.ClientUpdatedAtUtc) {
			return fmt.Errorf("%w: clientUpdatedAtUtc is older than server", common.ErrConflict)
		}

		b.Name = strings.TrimSpace(in.Name)
		b.Day = in.Day
		b.Month = in.Month
		b.Year = in.Year
		b.Phone = in.Phone
		b.Note = in.Note
		b.ContactID = in.ContactID
		b.NotifyEnabled = in.NotifyEnabled
		b.NotifyDaysBefore = in.NotifyDaysBefore
		b.NotifyTimeMinutes = in.NotifyTimeMinutes

		b.ClientUpdatedAtUtc = in.ClientUpdatedAtUtc
		b.UpdatedAtUtc = time.Now().UTC()
		b.Version++

		if err := repo.Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete raises the tombstone on a record, bumping both timestamps and the
// revision so other devices pick the deletion up on their next sync. The row
// and its field values are retained.
func (s *BirthdayService) Delete(ctx context.Context, userID string, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Birthdays(tx)

		b, err := repo.GetForUpdate(ctx, id, userID)
		if err != nil {
			return err
		}
		if b.IsDeleted {
			// already a tombstone, nothing to propagate
			return nil
		}

		now := time.Now().UTC()
		b.IsDeleted = true
		b.UpdatedAtUtc = now
		b.ClientUpdatedAtUtc = now
		b.Version++

		return repo.Update(ctx, b)
	})
}
