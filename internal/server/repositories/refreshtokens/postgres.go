// Package refreshtokens provides a PostgreSQL-backed repository for managing
// refresh tokens used in the server's authentication flow. Tokens are stored
// hashed; revocation keeps the row until the cleanup job removes it.
package refreshtokens

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

// PostgresRepository implements refresh token storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new refresh token hash for userID with the given expiry.
func (r *PostgresRepository) Create(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at_utc)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindByHash returns the refresh token row for the given token hash.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at_utc, revoked_at_utc, created_at_utc
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	token := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAtUtc, &token.RevokedAtUtc, &token.CreatedAtUtc,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Revoke marks a token as revoked at the given time. Already revoked tokens
// keep their original revocation time.
func (r *PostgresRepository) Revoke(ctx context.Context, tokenHash string, at time.Time) error {
	query := `
		UPDATE refresh_tokens SET revoked_at_utc = $2
		WHERE token_hash = $1 AND revoked_at_utc IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, tokenHash, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every live token of the user and returns how many
// rows were affected.
func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	query := `
		UPDATE refresh_tokens SET revoked_at_utc = $2
		WHERE user_id = $1 AND revoked_at_utc IS NULL AND expires_at_utc > $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, at)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// DeleteExpired physically removes tokens that expired before now or were
// revoked before revokedBefore, returning the number of deleted rows.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time, revokedBefore time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at_utc <= $1 OR (revoked_at_utc IS NOT NULL AND revoked_at_utc <= $2)
	`
	res, err := r.db.ExecContext(ctx, query, now, revokedBefore)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
