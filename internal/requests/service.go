package requests

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/accesshub/accesshub/internal/catalog"
	"github.com/accesshub/accesshub/internal/policy"
	"github.com/accesshub/accesshub/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Request, error)
	ListByStatus(ctx context.Context, status Status) ([]Request, error)
	ListAll(ctx context.Context) ([]Request, error)
}

// TxRepository exposes the mutations that must run inside one transaction so
// the existence check and the write observe the same snapshot.
type TxRepository interface {
	Insert(ctx context.Context, req RequestRecord) (int64, error)
	GetForUpdate(ctx context.Context, id int64) (int64, Status, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
}

// RequestRecord is the unresolved row shape handed to the repository on
// insert.
type RequestRecord struct {
	RequesterID int64
	ResourceID  int64
	AccessKind  catalog.AccessKind
	Reason      string
	Status      Status
}

// CatalogPort exposes the resource lookups the lifecycle depends on.
type CatalogPort interface {
	Get(ctx context.Context, id int64) (catalog.Resource, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the request lifecycle.
type Service struct {
	repo      RepositoryPort
	catalog   CatalogPort
	decisions *shared.DecisionRecorder
	audit     AuditPort
}

// NewService constructs the lifecycle service.
func NewService(repo RepositoryPort, cat CatalogPort, decisions *shared.DecisionRecorder, audit AuditPort) *Service {
	return &Service{repo: repo, catalog: cat, decisions: decisions, audit: audit}
}

// CreateInput describes the creation payload.
type CreateInput struct {
	ResourceID int64
	AccessKind string
	Reason     string
}

// Create files a new access request with status Pending. Duplicate pending
// requests for the same (requester, resource, kind) are permitted.
func (s *Service) Create(ctx context.Context, actor policy.Actor, input CreateInput) (Request, error) {
	if !policy.Can(actor.Role, policy.ActionCreateRequest) {
		return Request{}, fmt.Errorf("%w: only employees may file access requests", ErrForbidden)
	}
	if input.ResourceID == 0 || input.AccessKind == "" || strings.TrimSpace(input.Reason) == "" {
		return Request{}, fmt.Errorf("%w: software id, access type, and reason are required", ErrValidation)
	}
	resource, err := s.catalog.Get(ctx, input.ResourceID)
	if err != nil {
		return Request{}, err
	}
	kind := catalog.AccessKind(input.AccessKind)
	if !resource.Permits(kind) {
		return Request{}, fmt.Errorf("%w: invalid access type for this software", ErrValidation)
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		id, err = tx.Insert(ctx, RequestRecord{
			RequesterID: actor.ID,
			ResourceID:  resource.ID,
			AccessKind:  kind,
			Reason:      strings.TrimSpace(input.Reason),
			Status:      StatusPending,
		})
		return err
	})
	if err != nil {
		return Request{}, err
	}

	created, err := s.repo.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	s.recordDecision(ctx, id, actor.ID, shared.DecisionSubmit, fmt.Sprintf("requested %s on %s", kind, resource.Name))
	s.recordAudit(ctx, actor.ID, "REQUEST_CREATE", id, map[string]any{"resource": resource.ID, "kind": string(kind)})
	return created, nil
}

// ListPending returns every pending request with requester and resource
// resolved. Manager review queue.
func (s *Service) ListPending(ctx context.Context, actor policy.Actor) ([]Request, error) {
	if !policy.Can(actor.Role, policy.ActionReviewRequests) {
		return nil, fmt.Errorf("%w: manager privileges required", ErrForbidden)
	}
	return s.repo.ListByStatus(ctx, StatusPending)
}

// ListAll returns every request regardless of status. Admin only.
func (s *Service) ListAll(ctx context.Context, actor policy.Actor) ([]Request, error) {
	if !policy.Can(actor.Role, policy.ActionListAllRequests) {
		return nil, fmt.Errorf("%w: admin privileges required", ErrForbidden)
	}
	return s.repo.ListAll(ctx)
}

// Transition resolves a request to Approved or Rejected. Only those two
// literal values are accepted. The update is applied regardless of the
// record's current state, so reviewers can re-decide an already resolved
// request; the row is locked for the duration of the transaction so
// concurrent decisions serialize.
func (s *Service) Transition(ctx context.Context, actor policy.Actor, id int64, rawStatus string) (Request, error) {
	if rawStatus != string(StatusApproved) && rawStatus != string(StatusRejected) {
		return Request{}, fmt.Errorf("%w: valid status (Approved or Rejected) is required", ErrValidation)
	}
	if !policy.Can(actor.Role, policy.ActionTransitionRequest) {
		return Request{}, fmt.Errorf("%w: manager or admin privileges required", ErrForbidden)
	}
	status := Status(rawStatus)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, _, err := tx.GetForUpdate(ctx, id); err != nil {
			return err
		}
		return tx.UpdateStatus(ctx, id, status)
	})
	if err != nil {
		return Request{}, err
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	action := shared.DecisionApprove
	if status == StatusRejected {
		action = shared.DecisionReject
	}
	s.recordDecision(ctx, id, actor.ID, action, fmt.Sprintf("request %d %s", id, strings.ToLower(rawStatus)))
	s.recordAudit(ctx, actor.ID, "REQUEST_"+strings.ToUpper(rawStatus), id, map[string]any{"status": rawStatus})
	return updated, nil
}

// Delete removes a request unconditionally. Admin only.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	if !policy.Can(actor.Role, policy.ActionDeleteRequest) {
		return fmt.Errorf("%w: admin privileges required", ErrForbidden)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, _, err := tx.GetForUpdate(ctx, id); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor.ID, "REQUEST_DELETE", id, nil)
	return nil
}

// History returns the decision log of a request, oldest first.
func (s *Service) History(ctx context.Context, actor policy.Actor, id int64) ([]shared.DecisionLog, error) {
	if !policy.Can(actor.Role, policy.ActionListAllRequests) {
		return nil, fmt.Errorf("%w: admin privileges required", ErrForbidden)
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.decisions == nil {
		return nil, nil
	}
	return s.decisions.List(ctx, decisionRef(id))
}

func decisionRef(id int64) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("request:%d", id)))
}

func (s *Service) recordDecision(ctx context.Context, id, actorID int64, action shared.DecisionAction, note string) {
	if s.decisions == nil {
		return
	}
	_ = s.decisions.Record(ctx, shared.DecisionLog{RefID: decisionRef(id), ActorID: actorID, Action: action, Note: note})
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "request", EntityID: strconv.FormatInt(entityID, 10), Meta: meta})
}
