package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/common"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/auth"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/config"
)

const testSecret = "test-secret"

func newUserTestEnv(t *testing.T) (*UserService, *fakeRepoManager) {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    testSecret,
		AccessTokenValidityDuration:  15 * time.Minute,
		RefreshTokenValidityDuration: 30 * 24 * time.Hour,
	}
	rm := newFakeRepoManager()
	return NewUserService(newTestDB(t), rm, cfg), rm
}

func TestRegister(t *testing.T) {
	svc, rm := newUserTestEnv(t)

	pair, err := svc.Register(context.Background(), " User@Example.COM ", "password1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	user, err := rm.users.GetByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.NotEqual(t, "password1", user.PasswordHash)

	userID, err := auth.GetUserIDFromToken(pair.AccessToken, []byte(testSecret))
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	// The refresh token is stored hashed, never raw.
	_, err = rm.tokens.FindByHash(context.Background(), hashToken(pair.RefreshToken))
	require.NoError(t, err)
	_, err = rm.tokens.FindByHash(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newUserTestEnv(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing at sign", "not-an-email", "password1"},
		{"empty email", "", "password1"},
		{"short password", "a@b.com", "pass1"},
		{"password without digit", "a@b.com", "passwords"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.password)
			require.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newUserTestEnv(t)

	_, err := svc.Register(context.Background(), "a@b.com", "password1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "A@B.com", "password2")
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestLogin(t *testing.T) {
	svc, _ := newUserTestEnv(t)

	_, err := svc.Register(context.Background(), "a@b.com", "password1")
	require.NoError(t, err)

	pair, err := svc.Login(context.Background(), "a@b.com", "password1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	_, err = svc.Login(context.Background(), "a@b.com", "wrong-password")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	// Unknown email reads the same as a wrong password.
	_, err = svc.Login(context.Background(), "nobody@b.com", "password1")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, rm := newUserTestEnv(t)

	pair, err := svc.Register(context.Background(), "a@b.com", "password1")
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The old token is revoked and refuses further use.
	old, err := rm.tokens.FindByHash(context.Background(), hashToken(pair.RefreshToken))
	require.NoError(t, err)
	require.True(t, old.Revoked())

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	// The rotated token works.
	_, err = svc.Refresh(context.Background(), rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _ := newUserTestEnv(t)
	_, err := svc.Refresh(context.Background(), "never-issued")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRefreshExpiredToken(t *testing.T) {
	svc, rm := newUserTestEnv(t)

	raw := "expired-token"
	err := rm.tokens.Create(context.Background(), "user-1", hashToken(raw), time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), raw)
	require.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestLogout(t *testing.T) {
	svc, rm := newUserTestEnv(t)

	pair, err := svc.Register(context.Background(), "a@b.com", "password1")
	require.NoError(t, err)
	user, err := rm.users.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)

	// A token owned by someone else must not be revocable.
	err = svc.Logout(context.Background(), "other-user", pair.RefreshToken)
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	// Unknown tokens are a silent no-op.
	require.NoError(t, svc.Logout(context.Background(), user.ID, "never-issued"))

	require.NoError(t, svc.Logout(context.Background(), user.ID, pair.RefreshToken))
	stored, err := rm.tokens.FindByHash(context.Background(), hashToken(pair.RefreshToken))
	require.NoError(t, err)
	require.True(t, stored.Revoked())

	// Logging out twice stays a no-op.
	require.NoError(t, svc.Logout(context.Background(), user.ID, pair.RefreshToken))
}

func TestLogoutAll(t *testing.T) {
	svc, rm := newUserTestEnv(t)

	first, err := svc.Register(context.Background(), "a@b.com", "password1")
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), "a@b.com", "password1")
	require.NoError(t, err)
	user, err := rm.users.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(context.Background(), user.ID))

	for _, raw := range []string{first.RefreshToken, second.RefreshToken} {
		stored, err := rm.tokens.FindByHash(context.Background(), hashToken(raw))
		require.NoError(t, err)
		require.True(t, stored.Revoked())
	}
}

func TestCleanupExpiredTokens(t *testing.T) {
	svc, rm := newUserTestEnv(t)

	now := time.Now().UTC()
	ctx := context.Background()

	require.NoError(t, rm.tokens.Create(ctx, "u", hashToken("live"), now.Add(time.Hour)))
	require.NoError(t, rm.tokens.Create(ctx, "u", hashToken("expired"), now.Add(-time.Hour)))
	require.NoError(t, rm.tokens.Create(ctx, "u", hashToken("recently-revoked"), now.Add(time.Hour)))
	require.NoError(t, rm.tokens.Revoke(ctx, hashToken("recently-revoked"), now.Add(-time.Hour)))
	require.NoError(t, rm.tokens.Create(ctx, "u", hashToken("long-revoked"), now.Add(time.Hour)))
	require.NoError(t, rm.tokens.Revoke(ctx, hashToken("long-revoked"), now.Add(-8*24*time.Hour)))

	deleted, err := svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	_, err = rm.tokens.FindByHash(ctx, hashToken("live"))
	require.NoError(t, err)
	_, err = rm.tokens.FindByHash(ctx, hashToken("recently-revoked"))
	require.NoError(t, err)
	_, err = rm.tokens.FindByHash(ctx, hashToken("expired"))
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, err = rm.tokens.FindByHash(ctx, hashToken("long-revoked"))
	require.ErrorIs(t, err, common.ErrorNotFound)
}
