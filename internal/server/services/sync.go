// Package services contains server-side business logic. This file implements
// the sync reconciler: it applies a batch of client changes under a
// last-write-wins rule and computes the server-side delta since the client's
// watermark, all inside one transaction.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/common"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/dbx"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/models"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/repositories/birthdays"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/repositories/repomanager"
)

// BirthdayChange is one client-side edit. Optional fields are pointers so
// "client did not send this field" stays distinct from a sent zero value;
// absent fields take the documented defaults on acceptance. An empty ID asks
// the server to assign one.
type BirthdayChange struct {
	ID                 string
	Name               *string
	Day                *int
	Month              *int
	Year               *int
	Phone              *string
	Note               *string
	ContactID          *string
	NotifyEnabled      *bool
	NotifyDaysBefore   *int
	NotifyTimeMinutes  *int
	IsDeleted          bool
	ClientUpdatedAtUtc time.Time
}

// SyncResult is the outbound delta: every record of the user modified after
// the watermark, split into full upserts and tombstone ids, plus the server
// time the client should use as its next watermark.
type SyncResult struct {
	ServerTimeUtc time.Time
	Upserts       []*models.Birthday
	Deletes       []string
}

// applyOutcome is the discriminated result of applying one change item.
type applyOutcome int

const (
	applyCreated applyOutcome = iota
	applyUpdated
	// applyRejected means the stored record carried an equal or newer
	// client timestamp; the item is silently discarded, not an error.
	applyRejected
)

// Defaults used when a non-deleting change omits an optional field.
const (
	defaultNotifyEnabled     = true
	defaultNotifyDaysBefore  = 1
	defaultNotifyTimeMinutes = 540
)

// SyncService reconciles per-record edits from potentially stale clients.
// It is stateless between calls; every invocation is one unit of work.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewSyncService constructs a SyncService over the given DB and repositories.
func NewSyncService(db *sql.DB, m repomanager.RepositoryManager) *SyncService {
	return &SyncService{db: db, repomanager: m}
}

// Sync applies the changes in input order and returns the delta since
// lastSyncAt (nil watermark = the whole collection). The batch is
// all-or-nothing: a validation failure or store error rolls everything back.
// Per-item stale discards are normal no-ops. The delta is computed inside the
// same transaction, so it reflects exactly the just-committed writes plus
// prior state.
func (s *SyncService) Sync(ctx context.Context, userID string, lastSyncAt *time.Time, changes []*BirthdayChange) (*SyncResult, error) {

	// Fail fast before touching the store: one malformed item rejects the
	// whole batch, so there is nothing to roll back.
	for _, change := range changes {
		if change.IsDeleted {
			continue
		}
		if err := validateChange(change); err != nil {
			return nil, err
		}
	}

	since := time.Time{}
	if lastSyncAt != nil {
		since = lastSyncAt.UTC()
	}

	var result *SyncResult

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Birthdays(tx)

		for _, change := range changes {
			if _, err := s.applyChange(ctx, repo, userID, change); err != nil {
				return err
			}
		}

		serverTime := time.Now().UTC()

		changed, err := repo.SelectChangedSince(ctx, userID, since)
		if err != nil {
			return err
		}

		upserts := []*models.Birthday{}
		deletes := []string{}
		for _, b := range changed {
			if b.IsDeleted {
				deletes = append(deletes, b.ID)
			} else {
				upserts = append(upserts, b)
			}
		}

		result = &SyncResult{ServerTimeUtc: serverTime, Upserts: upserts, Deletes: deletes}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// applyChange processes a single item against the locked current state.
// Resolution: unknown (id, user) pairs create a record (a colliding id owned
// by another user is invisible here, so the collision is inert); known pairs
// accept the change only when the item's client timestamp is strictly newer.
func (s *SyncService) applyChange(ctx context.Context, repo birthdays.Repository, userID string, change *BirthdayChange) (applyOutcome, error) {

	id := change.ID
	if id == "" {
		id = uuid.NewString()
	}

	existing, err := repo.GetForUpdate(ctx, id, userID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return applyRejected, err
	}

	now := time.Now().UTC()

	if existing == nil {
		b := &models.Birthday{
			ID:                 id,
			UserID:             userID,
			NotifyEnabled:      defaultNotifyEnabled,
			NotifyDaysBefore:   defaultNotifyDaysBefore,
			NotifyTimeMinutes:  defaultNotifyTimeMinutes,
			Version:            1,
			CreatedAtUtc:       now,
			UpdatedAtUtc:       now,
			ClientUpdatedAtUtc: change.ClientUpdatedAtUtc,
		}
		applyFields(b, change)
		if err := repo.Insert(ctx, b); err != nil {
			return applyRejected, fmt.Errorf("error creating birthday: %w", err)
		}
		return applyCreated, nil
	}

	// Last-write-wins: equal or older client timestamps are discarded.
	if !change.ClientUpdatedAtUtc.After(existing.ClientUpdatedAtUtc) {
		return applyRejected, nil
	}

	applyFields(existing, change)
	existing.ClientUpdatedAtUtc = change.ClientUpdatedAtUtc
	existing.UpdatedAtUtc = now
	existing.Version++

	if err := repo.Update(ctx, existing); err != nil {
		return applyRejected, fmt.Errorf("error updating birthday: %w", err)
	}
	return applyUpdated, nil
}

// applyFields copies the item onto the record. A deleting change only raises
// the tombstone flag and leaves every other field untouched; an accepted
// upsert overwrites all mutable fields (absent ones with defaults) and clears
// the tombstone, which resurrects a previously deleted record.
func applyFields(b *models.Birthday, change *BirthdayChange) {
	if change.IsDeleted {
		b.IsDeleted = true
		return
	}

	b.Name = strings.TrimSpace(valueOr(change.Name, ""))
	b.Day = valueOr(change.Day, 0)
	b.Month = valueOr(change.Month, 0)
	b.Year = change.Year
	b.Phone = change.Phone
	b.Note = change.Note
	b.ContactID = change.ContactID
	b.NotifyEnabled = valueOr(change.NotifyEnabled, defaultNotifyEnabled)
	b.NotifyDaysBefore = valueOr(change.NotifyDaysBefore, defaultNotifyDaysBefore)
	b.NotifyTimeMinutes = valueOr(change.NotifyTimeMinutes, defaultNotifyTimeMinutes)
	b.IsDeleted = false
}

// validateChange checks the field constraints of a non-deleting item.
// Absent notify fields validate as their lenient zero forms; the defaults are
// applied later, on acceptance.
func validateChange(change *BirthdayChange) error {
	return validateBirthdayFields(
		valueOr(change.Name, ""),
		valueOr(change.Day, 0),
		valueOr(change.Month, 0),
		valueOr(change.NotifyDaysBefore, 0),
		valueOr(change.NotifyTimeMinutes, 0),
	)
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
