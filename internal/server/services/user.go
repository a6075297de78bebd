// This file implements UserService: registration, login, issuing/refreshing
// JWTs plus server-stored rotating refresh tokens, and logout.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/toprakakdogann/BirthdayReminderBackend/internal/common"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/dbx"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/auth"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/config"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/models"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
// The refresh token is returned raw exactly once; only its hash is stored.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

const minPasswordLength = 8

// revokedRetention is how long revoked refresh tokens are kept before the
// cleanup job removes them.
const revokedRetention = 7 * 24 * time.Hour

// UserService provides authentication-related operations:
// - Register: create users and mint the first token pair
// - Login: verify credentials and mint tokens
// - Refresh: rotate refresh tokens and mint new access tokens
// - Logout/LogoutAll: revoke refresh tokens
// - CleanupExpiredTokens: retention job for dead tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new user with a bcrypt password hash and returns the
// first token pair. Duplicate emails yield common.ErrConflict.
func (s *UserService) Register(ctx context.Context, email string, password string) (*TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		user, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: string(hash)})
		if err != nil {
			if errors.Is(err, common.ErrConflict) {
				return fmt.Errorf("%w: email already registered", common.ErrConflict)
			}
			return fmt.Errorf("error creating user: %w", err)
		}
		pair, err = s.generateTokenPair(ctx, user.ID, tx)
		return err
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Login verifies the password against the stored bcrypt hash and, on success,
// returns a new TokenPair. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email string, password string) (*TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}
	return s.generateTokenPair(ctx, user.ID, s.db)
}

// Refresh validates a refresh token, rotates it transactionally, and returns
// a fresh TokenPair. Revoked or expired tokens yield ErrorUnauthorized.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.FindByHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Revoked() {
		return nil, common.ErrorUnauthorized
	}
	if token.ExpiresAtUtc.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Revoke(ctx, token.TokenHash, time.Now().UTC()); err != nil {
			return fmt.Errorf("error revoking refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes a single refresh token. An unknown token is a no-op; a token
// owned by another user yields ErrorUnauthorized.
func (s *UserService) Logout(ctx context.Context, userID string, refreshToken string) error {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.FindByHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.UserID != userID {
		return common.ErrorUnauthorized
	}
	if token.Revoked() {
		return nil
	}
	return repo.Revoke(ctx, token.TokenHash, time.Now().UTC())
}

// LogoutAll revokes every live refresh token of the user.
func (s *UserService) LogoutAll(ctx context.Context, userID string) error {
	repo := s.repomanager.RefreshTokens(s.db)
	_, err := repo.RevokeAllForUser(ctx, userID, time.Now().UTC())
	return err
}

// CleanupExpiredTokens deletes expired tokens and tokens revoked longer than
// the retention window ago, returning the number of removed rows.
func (s *UserService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	repo := s.repomanager.RefreshTokens(s.db)
	now := time.Now().UTC()
	return repo.DeleteExpired(ctx, now, now.Add(-revokedRetention))
}

// --- helpers below ---

func validateCredentials(email string, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", common.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLength)
	}
	hasDigit := false
	for _, r := range password {
		if unicode.IsDigit(r) {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain a digit", common.ErrValidation)
	}
	return nil
}

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

// generateRefreshToken returns 64 random bytes, base64-encoded.
func generateRefreshToken() (string, error) {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// hashToken returns the hex SHA-256 of a refresh token string, the only form
// ever written to the store.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, userID, hashToken(refresh), time.Now().UTC().Add(s.refreshTokenValidityDuration)); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
