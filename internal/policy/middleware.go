package policy

import (
	"log/slog"
	"net/http"

	"github.com/accesshub/accesshub/internal/platform/httpx"
)

// Middleware wires policy checks in front of HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// Require rejects the request unless the context carries an actor whose role
// is granted the action: 401 with no actor, 403 on deny.
func (m Middleware) Require(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "not authenticated")
				return
			}
			if !Can(actor.Role, action) {
				if m.Logger != nil {
					m.Logger.Warn("policy denied",
						slog.String("action", string(action)),
						slog.String("role", string(actor.Role)),
						slog.Int64("actor_id", actor.ID))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
