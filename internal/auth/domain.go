// Package auth owns signup, login, and bearer-token resolution. The rest of
// the service only ever sees the sanitized policy.Actor it injects.
package auth

import (
	"fmt"
	"time"

	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/policy"
)

// Account is an authenticated account row, including credential material.
// It never leaves this package; callers get policy.Actor instead.
type Account struct {
	ID           int64
	Handle       string
	PasswordHash string
	Role         policy.Role
	CreatedAt    time.Time
}

// Actor returns the sanitized identity for the account.
func (a Account) Actor() policy.Actor {
	return policy.Actor{ID: a.ID, Handle: a.Handle, Role: a.Role}
}

var (
	// ErrInvalidCredentials covers unknown handle and bad password alike.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	// ErrInvalidToken covers missing, malformed, and expired bearer tokens.
	ErrInvalidToken = fmt.Errorf("%w: invalid token", httpx.ErrUnauthorized)
	// ErrHandleTaken indicates a signup with an existing username.
	ErrHandleTaken = fmt.Errorf("%w: username already exists", httpx.ErrDuplicate)
	// ErrValidation indicates malformed signup/login input.
	ErrValidation = httpx.ErrValidation
)
