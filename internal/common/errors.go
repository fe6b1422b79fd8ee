// Package common defines sentinel errors and small helpers shared by the
// local store, the cloud service and the sync engine. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrInternal          = errors.New("internal error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrOwnershipConflict = errors.New("record belongs to another user")
	ErrAlreadyExists     = errors.New("already exists")

	// Validation errors.
	ErrInvalidRating = errors.New("rating must be between 0 and 5")
	ErrInvalidRecord = errors.New("invalid record")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
