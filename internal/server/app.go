// Package server initializes and runs the main application server.
// It opens the database, runs migrations, wires services to the HTTP
// endpoint, handles graceful shutdown, and hosts the refresh-token
// cleanup job.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/toprakakdogann/BirthdayReminderBackend/internal/logging"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/config"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/httpapi"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/repositories/repomanager"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/services"
)

// Cleanup cadence for dead refresh tokens. The initial delay keeps the job
// off the DB while the service is still coming up.
const (
	tokenCleanupInitialDelay = 10 * time.Second
	tokenCleanupInterval     = 6 * time.Hour
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	userService     *services.UserService
	birthdayService *services.BirthdayService
	syncService     *services.SyncService
}

func NewApp(c *config.Config) (*App, error) {

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(log)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	us := services.NewUserService(db, rm, c)
	bs := services.NewBirthdayService(db, rm)
	ss := services.NewSyncService(db, rm)

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		userService:     us,
		birthdayService: bs,
		syncService:     ss,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(
		app.config.EndpointAddrHTTP,
		app.logger,
		app.db,
		app.userService,
		app.birthdayService,
		app.syncService,
		app.config.SecretKey,
		app.config.RateLimitEnabled,
	)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// runTokenCleanup periodically removes expired and long-revoked refresh
// tokens until ctx is cancelled.
func (app *App) runTokenCleanup(ctx context.Context) {

	select {
	case <-ctx.Done():
		return
	case <-time.After(tokenCleanupInitialDelay):
	}

	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		deleted, err := app.userService.CleanupExpiredTokens(ctx)
		if err != nil {
			app.logger.Error(ctx, "refresh token cleanup failed", "error", err.Error())
		} else if deleted > 0 {
			app.logger.Info(ctx, "refresh token cleanup", "deleted", deleted)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runTokenCleanup(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
