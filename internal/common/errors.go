// Package common defines shared constants and sentinel errors used across
// the server and client layers of authkeeper. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Credential errors.
	ErrInvalidInput       = errors.New("username and password required")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooLong    = errors.New("password too long")

	// Auth errors. Missing, malformed or tampered tokens.
	ErrTokenMissing = errors.New("token required")
	ErrInvalidToken = errors.New("token invalid")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
