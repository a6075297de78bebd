// Package models defines server-side persistence entities.
package models

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAtUtc time.Time
}
