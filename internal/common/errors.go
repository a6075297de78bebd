// Package common defines sentinel errors shared between repositories,
// services and the HTTP layer.
package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrValidation marks client input that fails a field constraint.
	// The whole request (or sync batch) is rejected, nothing is committed.
	ErrValidation = errors.New("validation error")

	// ErrConflict marks a write that lost to newer state: a stale
	// clientUpdatedAtUtc on update, or a duplicate unique value on insert.
	ErrConflict = errors.New("conflict")

	ErrRefreshTokenExpired = errors.New("refresh token expired")

	ErrInvalidToken = errors.New("invalid token")
)
