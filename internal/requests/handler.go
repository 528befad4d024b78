package requests

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/policy"
)

// Handler wires HTTP endpoints for the request lifecycle.
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

// MountRoutes registers request lifecycle routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.ActionCreateRequest))
		r.Post("/", h.createRequest)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.ActionReviewRequests))
		r.Get("/pending", h.listPending)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.ActionListAllRequests))
		r.Get("/", h.listAll)
		r.Get("/{id}/history", h.history)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.ActionTransitionRequest))
		r.Patch("/{id}", h.transition)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.ActionDeleteRequest))
		r.Delete("/{id}", h.deleteRequest)
	})
}

type createRequestBody struct {
	ResourceID int64  `json:"resourceId" validate:"required"`
	AccessKind string `json:"accessKind" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

type transitionBody struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "software id, access type, and reason are required")
		return
	}
	actor := policy.ActorFromContext(r.Context())
	created, err := h.service.Create(r.Context(), *actor, CreateInput{
		ResourceID: body.ResourceID,
		AccessKind: body.AccessKind,
		Reason:     body.Reason,
	})
	if err != nil {
		h.logger.Warn("create request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	actor := policy.ActorFromContext(r.Context())
	list, err := h.service.ListPending(r.Context(), *actor)
	if err != nil {
		h.logger.Error("list pending failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Request{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	actor := policy.ActorFromContext(r.Context())
	list, err := h.service.ListAll(r.Context(), *actor)
	if err != nil {
		h.logger.Error("list all failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Request{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request id")
		return
	}
	var body transitionBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	actor := policy.ActorFromContext(r.Context())
	updated, err := h.service.Transition(r.Context(), *actor, id, body.Status)
	if err != nil {
		h.logger.Warn("transition failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request id")
		return
	}
	actor := policy.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), *actor, id); err != nil {
		h.logger.Warn("delete request failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "request deleted"})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request id")
		return
	}
	actor := policy.ActorFromContext(r.Context())
	logs, err := h.service.History(r.Context(), *actor, id)
	if err != nil {
		h.logger.Warn("request history failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, logs)
}
