// Package actors manages directory views and role administration for the
// accounts that interact with the access request workflow.
package actors

import (
	"time"

	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/policy"
)

// Actor is the sanitized directory view of an account. It never carries
// credential material.
type Actor struct {
	ID        int64       `json:"id"`
	Handle    string      `json:"username"`
	Role      policy.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Sentinel errors, wired into the shared HTTP taxonomy.
var (
	ErrValidation = httpx.ErrValidation
	ErrForbidden  = httpx.ErrForbidden
	ErrNotFound   = httpx.ErrNotFound
)
