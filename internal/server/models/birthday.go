package models

import "time"

// Birthday is one reminder entry owned by exactly one user.
//
// ClientUpdatedAtUtc is the client-asserted modification time and drives
// last-write-wins conflict resolution during sync; UpdatedAtUtc is server
// wall-clock at acceptance time and drives delta queries. Version increases
// by one on every accepted mutation, starting at 1 on create.
//
// A deleted birthday is kept as a tombstone: IsDeleted is set, every other
// field keeps its pre-delete value, and the row is never physically removed.
type Birthday struct {
	ID     string
	UserID string

	Name  string
	Day   int
	Month int
	Year  *int

	Phone     *string
	Note      *string
	ContactID *string

	NotifyEnabled     bool
	NotifyDaysBefore  int
	NotifyTimeMinutes int

	IsDeleted bool

	Version int64

	CreatedAtUtc       time.Time
	UpdatedAtUtc       time.Time
	ClientUpdatedAtUtc time.Time
}
