// Package birthdays provides the PostgreSQL-backed repository for birthday
// records, including the row-locked lookups and delta scans used by sync.
package birthdays

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/toprakakdogann/BirthdayReminderBackend/internal/common"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/dbx"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/models"
)

const birthdayColumns = `id, user_id, name, day, month, year, phone, note, contact_id,
		notify_enabled, notify_days_before, notify_time_minutes,
		is_deleted, version, created_at_utc, updated_at_utc, client_updated_at_utc`

// PostgresRepository implements birthday storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanBirthday(row interface{ Scan(...any) error }) (*models.Birthday, error) {
	b := &models.Birthday{}
	err := row.Scan(
		&b.ID, &b.UserID, &b.Name, &b.Day, &b.Month, &b.Year, &b.Phone, &b.Note, &b.ContactID,
		&b.NotifyEnabled, &b.NotifyDaysBefore, &b.NotifyTimeMinutes,
		&b.IsDeleted, &b.Version, &b.CreatedAtUtc, &b.UpdatedAtUtc, &b.ClientUpdatedAtUtc,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Get returns the record (tombstones included) or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string, userID string) (*models.Birthday, error) {
	query := `SELECT ` + birthdayColumns + ` FROM birthdays
		WHERE id = $1 AND user_id = $2
		`
	b, err := scanBirthday(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string, userID string) (*models.Birthday, error) {
	query := `SELECT ` + birthdayColumns + ` FROM birthdays
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
		`
	b, err := scanBirthday(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

// ListActive returns non-deleted records ordered by month, then day.
func (r *PostgresRepository) ListActive(ctx context.Context, userID string) ([]*models.Birthday, error) {
	query := `SELECT ` + birthdayColumns + ` FROM birthdays
		WHERE user_id = $1 AND is_deleted = false
		ORDER BY month, day
		`
	return r.selectMany(ctx, query, userID)
}

// SelectChangedSince returns all records for userID with
// updated_at_utc > since, tombstones included.
func (r *PostgresRepository) SelectChangedSince(ctx context.Context, userID string, since time.Time) ([]*models.Birthday, error) {
	query := `SELECT ` + birthdayColumns + ` FROM birthdays
		WHERE user_id = $1 AND updated_at_utc > $2
		`
	return r.selectMany(ctx, query, userID, since)
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.Birthday, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select birthdays: %w", err)
	}
	defer rows.Close()

	var result []*models.Birthday
	for rows.Next() {
		item, err := scanBirthday(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Insert stores a new record with all fields as given.
func (r *PostgresRepository) Insert(ctx context.Context, b *models.Birthday) error {
	query := `
		INSERT INTO birthdays (` + birthdayColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.UserID, b.Name, b.Day, b.Month, b.Year, b.Phone, b.Note, b.ContactID,
		b.NotifyEnabled, b.NotifyDaysBefore, b.NotifyTimeMinutes,
		b.IsDeleted, b.Version, b.CreatedAtUtc, b.UpdatedAtUtc, b.ClientUpdatedAtUtc,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update overwrites all mutable fields of the record identified by
// (id, user_id). Zero affected rows yields common.ErrorNotFound.
func (r *PostgresRepository) Update(ctx context.Context, b *models.Birthday) error {
	query := `
		UPDATE birthdays SET
			name = $3, day = $4, month = $5, year = $6, phone = $7, note = $8, contact_id = $9,
			notify_enabled = $10, notify_days_before = $11, notify_time_minutes = $12,
			is_deleted = $13, version = $14, updated_at_utc = $15, client_updated_at_utc = $16
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		b.ID, b.UserID, b.Name, b.Day, b.Month, b.Year, b.Phone, b.Note, b.ContactID,
		b.NotifyEnabled, b.NotifyDaysBefore, b.NotifyTimeMinutes,
		b.IsDeleted, b.Version, b.UpdatedAtUtc, b.ClientUpdatedAtUtc,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
