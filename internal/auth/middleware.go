package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/policy"
)

// Middleware resolves the bearer token on incoming requests and injects the
// authenticated actor into the request context. Requests without a valid
// token are rejected with 401 before reaching any handler.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Authenticate is the required-auth middleware for the API routes.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "access denied: no token provided")
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		actor, err := m.Service.ResolveToken(r.Context(), raw)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("token rejected", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}
		ctx := policy.ContextWithActor(r.Context(), &actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
