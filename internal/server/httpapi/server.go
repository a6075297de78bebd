// Package httpapi exposes the REST surface of the server: authentication,
// birthday CRUD, offline sync and health, behind chi routing with bearer-token
// auth and per-route rate limiting.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/logging"
)

// Server wires handlers, middleware and routing into one http.Server.
type Server struct {
	address   string
	logger    logging.Logger
	db        *sql.DB
	users     UserService
	birthdays BirthdayService
	syncs     SyncService
	jwtSecret []byte
	router    chi.Router
}

// NewServer builds the HTTP server. rateLimitEnabled turns the per-route
// limits off entirely (useful in tests).
func NewServer(address string, l logging.Logger, db *sql.DB, us UserService, bs BirthdayService, ss SyncService, secretKey string, rateLimitEnabled bool) *Server {
	s := &Server{
		address:   address,
		logger:    l.With("module", "http_server"),
		db:        db,
		users:     us,
		birthdays: bs,
		syncs:     ss,
		jwtSecret: []byte(secretKey),
	}
	s.router = s.buildRouter(rateLimitEnabled)
	return s
}

// Handler returns the root handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter(rateLimitEnabled bool) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// policies mirror the original deployment: windows per IP for anonymous
	// auth routes, per user for authenticated ones
	loginLimit := newRateLimiter(perMinute(10), 10, ipKey, rateLimitEnabled)
	registerLimit := newRateLimiter(per(3, 5*time.Minute), 3, ipKey, rateLimitEnabled)
	refreshLimit := newRateLimiter(perMinute(20), 20, ipKey, rateLimitEnabled)
	logoutLimit := newRateLimiter(perMinute(30), 30, userKey, rateLimitEnabled)
	syncLimit := newRateLimiter(perMinute(60), 60, userKey, rateLimitEnabled)

	auth := bearerAuth(s.jwtSecret)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.With(registerLimit.middleware).Post("/register", s.handleRegister)
		r.With(loginLimit.middleware).Post("/login", s.handleLogin)
		r.With(refreshLimit.middleware).Post("/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.With(logoutLimit.middleware).Post("/logout", s.handleLogout)
			r.With(logoutLimit.middleware).Post("/logout-all", s.handleLogoutAll)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Route("/birthdays", func(r chi.Router) {
			r.Get("/", s.handleListBirthdays)
			r.Post("/", s.handleCreateBirthday)
			r.Get("/{id}", s.handleGetBirthday)
			r.Put("/{id}", s.handleUpdateBirthday)
			r.Delete("/{id}", s.handleDeleteBirthday)
		})

		r.With(syncLimit.middleware).Post("/sync", s.handleSync)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
