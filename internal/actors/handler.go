package actors

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/policy"
)

// Handler wires HTTP endpoints for actor administration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	policy    policy.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard policy.Middleware) *Handler {
	return &Handler{logger: logger, service: service, policy: guard, validator: validator.New()}
}

// MountRoutes registers actor administration routes. Every route is
// admin-only at the policy layer; the service re-checks before mutating.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.ActionListActors))
		r.Get("/", h.listActors)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.ActionChangeActorRole))
		r.Patch("/{id}", h.changeRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.ActionDeleteActor))
		r.Delete("/{id}", h.deleteActor)
	})
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) listActors(w http.ResponseWriter, r *http.Request) {
	actor := policy.ActorFromContext(r.Context())
	list, err := h.service.List(r.Context(), *actor)
	if err != nil {
		h.logger.Error("list actors failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Actor{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid actor id")
		return
	}
	var body changeRoleRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "valid role (Admin, Manager, or Employee) is required")
		return
	}
	actor := policy.ActorFromContext(r.Context())
	updated, err := h.service.ChangeRole(r.Context(), *actor, targetID, body.Role)
	if err != nil {
		h.logger.Warn("change role failed", slog.Int64("target", targetID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteActor(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid actor id")
		return
	}
	actor := policy.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), *actor, targetID); err != nil {
		h.logger.Warn("delete actor failed", slog.Int64("target", targetID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "actor deleted"})
}
