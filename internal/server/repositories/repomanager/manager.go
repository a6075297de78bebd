package repomanager

import (
	"context"
	"database/sql"

	"github.com/toprakakdogann/BirthdayReminderBackend/internal/dbx"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/repositories/birthdays"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/repositories/refreshtokens"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Birthdays(db dbx.DBTX) birthdays.Repository
}
