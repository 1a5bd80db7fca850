// Package auth provides account registration and token based
// authentication for the benchmark gateway.
package auth

import (
	"errors"
	"time"
)

// User is a gateway account. PasswordHash never leaves the package.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	// ErrEmailTaken indicates a registration with an already used email.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUnauthorized indicates a missing, expired or revoked token.
	ErrUnauthorized = errors.New("auth: unauthorized")
)
