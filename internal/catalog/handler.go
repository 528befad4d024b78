package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/policy"
)

// Handler wires HTTP endpoints for the resource catalog.
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

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.ActionListResources))
		r.Get("/", h.listResources)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.ActionCreateResource))
		r.Post("/", h.createResource)
	})
}

type createResourceRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	AccessKinds []string `json:"accessKinds" validate:"required,min=1"`
}

func (h *Handler) createResource(w http.ResponseWriter, r *http.Request) {
	var body createResourceRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name, description, and access kinds are required")
		return
	}
	actor := policy.ActorFromContext(r.Context())
	res, err := h.service.Create(r.Context(), actor.ID, CreateInput{
		Name:        body.Name,
		Description: body.Description,
		AccessKinds: body.AccessKinds,
	})
	if err != nil {
		h.logger.Warn("create resource failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) listResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list resources failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if resources == nil {
		resources = []Resource{}
	}
	httpx.JSON(w, http.StatusOK, resources)
}
