// Package requests implements the access request lifecycle: an employee asks
// for an access kind on a catalog resource, a manager or admin resolves it.
package requests

import (
	"time"

	"github.com/accesshub/accesshub/internal/actors"
	"github.com/accesshub/accesshub/internal/catalog"
	"github.com/accesshub/accesshub/internal/platform/httpx"
)

// Status is the lifecycle state of an access request.
//
// New requests start Pending. Approved and Rejected are terminal in intent,
// but transitions are applied unconditionally: a resolved request can be
// re-decided by a reviewer. Deletion is the only other mutation.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Request is an access request with its requester and target resource
// resolved. Either reference may be zero-valued when the underlying record
// was deleted after the request was filed.
type Request struct {
	ID         int64              `json:"id"`
	Requester  actors.Actor       `json:"requester"`
	Resource   catalog.Resource   `json:"resource"`
	AccessKind catalog.AccessKind `json:"accessKind"`
	Reason     string             `json:"reason"`
	Status     Status             `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// Sentinel errors, wired into the shared HTTP taxonomy.
var (
	ErrValidation = httpx.ErrValidation
	ErrForbidden  = httpx.ErrForbidden
	ErrNotFound   = httpx.ErrNotFound
)
