package models

import "time"

// RefreshToken is a server-stored refresh token. Only the SHA-256 hash of the
// token string is persisted; the raw value is returned to the client once.
type RefreshToken struct {
	ID           int64
	UserID       string
	TokenHash    string
	ExpiresAtUtc time.Time
	RevokedAtUtc *time.Time
	CreatedAtUtc time.Time
}

// Revoked reports whether the token has been revoked.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAtUtc != nil
}
