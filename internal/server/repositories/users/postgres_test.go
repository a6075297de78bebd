package users

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/common"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRepository(db)

	at := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("a@b.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at_utc"}).AddRow("u-1", at))

	user, err := repo.Create(context.Background(), &models.User{Email: "a@b.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.Equal(t, "u-1", user.ID)
	require.Equal(t, at, user.CreatedAtUtc)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("a@b.com", "hash").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.com", PasswordHash: "hash"})
	require.ErrorIs(t, err, common.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRepository(db)

	at := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at_utc"}).
			AddRow("u-1", "a@b.com", "hash", at))

	user, err := repo.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.Equal(t, "u-1", user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmailNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("nobody@b.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "nobody@b.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("u-404").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "u-404")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
