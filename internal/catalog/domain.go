// Package catalog manages the registry of software resources that can be
// access-gated.
package catalog

import (
	"fmt"
	"time"

	"github.com/accesshub/accesshub/internal/platform/httpx"
)

// AccessKind is one of the access levels a resource can permit.
type AccessKind string

const (
	AccessRead  AccessKind = "Read"
	AccessWrite AccessKind = "Write"
	AccessAdmin AccessKind = "Admin"
)

// ParseAccessKind validates a raw access kind string.
func ParseAccessKind(raw string) (AccessKind, error) {
	switch AccessKind(raw) {
	case AccessRead, AccessWrite, AccessAdmin:
		return AccessKind(raw), nil
	}
	return "", fmt.Errorf("%w: unknown access kind %q", ErrValidation, raw)
}

// Resource is a software system with its permitted access kinds. Resources
// are immutable after creation; only Admins create them.
type Resource struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	AccessKinds []AccessKind `json:"accessKinds"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Permits reports whether the resource allows the given access kind.
func (r Resource) Permits(kind AccessKind) bool {
	for _, k := range r.AccessKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Sentinel errors, wired into the shared HTTP taxonomy.
var (
	ErrValidation = httpx.ErrValidation
	ErrNotFound   = httpx.ErrNotFound
)
