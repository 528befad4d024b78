package actors

import (
	"context"
	"fmt"
	"strconv"

	"github.com/accesshub/accesshub/internal/policy"
	"github.com/accesshub/accesshub/internal/shared"
)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Actor, error)
	Get(ctx context.Context, id int64) (Actor, error)
	UpdateRole(ctx context.Context, id int64, role policy.Role) (Actor, error)
	Delete(ctx context.Context, id int64) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles directory business rules.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns every actor in the directory. Admin only.
func (s *Service) List(ctx context.Context, actor policy.Actor) ([]Actor, error) {
	if !policy.Can(actor.Role, policy.ActionListActors) {
		return nil, fmt.Errorf("%w: admin privileges required", ErrForbidden)
	}
	return s.repo.List(ctx)
}

// ChangeRole reassigns the target actor's role. An admin may not demote
// themselves; reassigning their own role to Admin is a permitted no-op.
func (s *Service) ChangeRole(ctx context.Context, actor policy.Actor, targetID int64, rawRole string) (Actor, error) {
	if !policy.Can(actor.Role, policy.ActionChangeActorRole) {
		return Actor{}, fmt.Errorf("%w: admin privileges required", ErrForbidden)
	}
	role, err := policy.ParseRole(rawRole)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: valid role (Admin, Manager, or Employee) is required", ErrValidation)
	}
	target, err := s.repo.Get(ctx, targetID)
	if err != nil {
		return Actor{}, err
	}
	if target.ID == actor.ID && role != policy.RoleAdmin {
		return Actor{}, fmt.Errorf("%w: cannot change your own admin role", ErrValidation)
	}
	updated, err := s.repo.UpdateRole(ctx, targetID, role)
	if err != nil {
		return Actor{}, err
	}
	s.recordAudit(ctx, actor.ID, "ACTOR_ROLE_CHANGE", targetID, map[string]any{"role": string(role)})
	return updated, nil
}

// Delete removes the target actor. Self-deletion is always rejected so an
// admin cannot remove their own account. Existing access requests referencing
// the target are left in place.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, targetID int64) error {
	if !policy.Can(actor.Role, policy.ActionDeleteActor) {
		return fmt.Errorf("%w: admin privileges required", ErrForbidden)
	}
	target, err := s.repo.Get(ctx, targetID)
	if err != nil {
		return err
	}
	if target.ID == actor.ID {
		return fmt.Errorf("%w: cannot delete your own admin account", ErrValidation)
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return err
	}
	s.recordAudit(ctx, actor.ID, "ACTOR_DELETE", targetID, map[string]any{"handle": target.Handle})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "actor", EntityID: strconv.FormatInt(entityID, 10), Meta: meta})
}
