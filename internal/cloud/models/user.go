// Package models holds the account rows of the cloud database.
package models

import "time"

// User is a cloud account. Verifier is derived from the password and Salt;
// the password itself is never stored.
type User struct {
	ID        string
	Email     string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}

// RefreshToken is a stored, single-use token that can be exchanged for a new
// access/refresh pair until Expires.
type RefreshToken struct {
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
