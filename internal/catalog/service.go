package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/accesshub/accesshub/internal/shared"
)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	Insert(ctx context.Context, res Resource) (int64, error)
	List(ctx context.Context) ([]Resource, error)
	Get(ctx context.Context, id int64) (Resource, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates catalog operations.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	audit AuditPort
}

// NewService constructs the catalog service.
func NewService(repo RepositoryPort, cache *Cache, audit AuditPort) *Service {
	return &Service{repo: repo, cache: cache, audit: audit}
}

// CreateInput describes the resource creation payload.
type CreateInput struct {
	Name        string
	Description string
	AccessKinds []string
}

// Create validates and persists a new software resource.
func (s *Service) Create(ctx context.Context, actorID int64, input CreateInput) (Resource, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	if name == "" || description == "" || len(input.AccessKinds) == 0 {
		return Resource{}, fmt.Errorf("%w: name, description, and access kinds are required", ErrValidation)
	}
	kinds := make([]AccessKind, 0, len(input.AccessKinds))
	for _, raw := range input.AccessKinds {
		kind, err := ParseAccessKind(raw)
		if err != nil {
			return Resource{}, err
		}
		kinds = append(kinds, kind)
	}

	res := Resource{Name: name, Description: description, AccessKinds: kinds}
	id, err := s.repo.Insert(ctx, res)
	if err != nil {
		return Resource{}, err
	}
	created, err := s.repo.Get(ctx, id)
	if err != nil {
		return Resource{}, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		// Stale list entries expire by TTL; creation already succeeded.
		_ = err
	}
	s.recordAudit(ctx, actorID, "RESOURCE_CREATE", created.ID, map[string]any{"name": created.Name})
	return created, nil
}

// List returns every resource in the catalog, served through the cache.
func (s *Service) List(ctx context.Context) ([]Resource, error) {
	return s.cache.FetchResources(ctx, s.repo.List)
}

// Get fetches one resource by ID.
func (s *Service) Get(ctx context.Context, id int64) (Resource, error) {
	return s.repo.Get(ctx, id)
}

// WarmList pre-populates the list cache. Used by the background worker.
func (s *Service) WarmList(ctx context.Context) error {
	_, err := s.cache.FetchResources(ctx, s.repo.List)
	return err
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "resource", EntityID: strconv.FormatInt(entityID, 10), Meta: meta})
}
