package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/common"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/models"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/services"
)

// UserService is what the auth endpoints need from the user/token logic.
type UserService interface {
	Register(ctx context.Context, email, password string) (*services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) error
}

// BirthdayService is what the CRUD endpoints need.
type BirthdayService interface {
	List(ctx context.Context, userID string) ([]*models.Birthday, error)
	Get(ctx context.Context, userID, id string) (*models.Birthday, error)
	Create(ctx context.Context, userID string, in *services.BirthdayUpsert) (*models.Birthday, error)
	Update(ctx context.Context, userID, id string, in *services.BirthdayUpsert) (*models.Birthday, error)
	Delete(ctx context.Context, userID, id string) error
}

// SyncService is the reconciler entry point.
type SyncService interface {
	Sync(ctx context.Context, userID string, lastSyncAt *time.Time, changes []*services.BirthdayChange) (*services.SyncResult, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// writeServiceError maps sentinel errors to HTTP status codes. Unknown errors
// surface as 500 with a generic body; the caller logs the details.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "unexpected error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// --- auth ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pair, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			// registration is the one place a conflict reads as bad input
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}
	pair, err := s.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}
	if err := s.users.Logout(r.Context(), userID, req.RefreshToken); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	if err := s.users.LogoutAll(r.Context(), userID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- birthdays ---

func (s *Server) handleListBirthdays(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	items, err := s.birthdays.List(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBirthdayDtos(items))
}

func (s *Server) handleCreateBirthday(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req birthdayUpsertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b, err := s.birthdays.Create(r.Context(), userID, req.toUpsert())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBirthdayDto(b))
}

func (s *Server) handleGetBirthday(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	b, err := s.birthdays.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBirthdayDto(b))
}

func (s *Server) handleUpdateBirthday(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req birthdayUpsertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b, err := s.birthdays.Update(r.Context(), userID, chi.URLParam(r, "id"), req.toUpsert())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBirthdayDto(b))
}

func (s *Server) handleDeleteBirthday(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	if err := s.birthdays.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- sync ---

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req syncRequest
	if !decodeBody(w, r, &req) {
		return
	}

	changes := make([]*services.BirthdayChange, 0, len(req.Changes))
	for i := range req.Changes {
		changes = append(changes, req.Changes[i].toChange())
	}

	result, err := s.syncs.Sync(r.Context(), userID, req.LastSyncAtUtc, changes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := syncResponse{
		ServerTimeUtc: result.ServerTimeUtc,
		Upserts:       toBirthdayDtos(result.Upserts),
		Deletes:       result.Deletes,
	}
	if resp.Deletes == nil {
		resp.Deletes = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- service info ---

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":   "BirthdayReminder API",
		"status": "ok",
		"health": "/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "db": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "up"})
}
