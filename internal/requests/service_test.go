package requests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/accesshub/accesshub/internal/actors"
	"github.com/accesshub/accesshub/internal/catalog"
	"github.com/accesshub/accesshub/internal/policy"
)

type memoryRepo struct {
	rows      map[int64]Request
	nextID    int64
	requester actors.Actor
	resources map[int64]catalog.Resource
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		rows:      make(map[int64]Request),
		resources: make(map[int64]catalog.Resource),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Request, error) {
	req, ok := r.rows[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (r *memoryRepo) ListByStatus(ctx context.Context, status Status) ([]Request, error) {
	var out []Request
	for id := int64(1); id <= r.nextID; id++ {
		if req, ok := r.rows[id]; ok && req.Status == status {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListAll(ctx context.Context) ([]Request, error) {
	var out []Request
	for id := int64(1); id <= r.nextID; id++ {
		if req, ok := r.rows[id]; ok {
			out = append(out, req)
		}
	}
	return out, nil
}

func (tx *memoryTx) Insert(ctx context.Context, rec RequestRecord) (int64, error) {
	tx.repo.nextID++
	id := tx.repo.nextID
	now := time.Now()
	tx.repo.rows[id] = Request{
		ID:         id,
		Requester:  tx.repo.requester,
		Resource:   tx.repo.resources[rec.ResourceID],
		AccessKind: rec.AccessKind,
		Reason:     rec.Reason,
		Status:     rec.Status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return id, nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (int64, Status, error) {
	req, ok := tx.repo.rows[id]
	if !ok {
		return 0, "", ErrNotFound
	}
	return req.ID, req.Status, nil
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status) error {
	req, ok := tx.repo.rows[id]
	if !ok {
		return ErrNotFound
	}
	req.Status = status
	req.UpdatedAt = time.Now()
	tx.repo.rows[id] = req
	return nil
}

func (tx *memoryTx) Delete(ctx context.Context, id int64) error {
	if _, ok := tx.repo.rows[id]; !ok {
		return ErrNotFound
	}
	delete(tx.repo.rows, id)
	return nil
}

type fakeCatalog struct {
	resources map[int64]catalog.Resource
}

func (f fakeCatalog) Get(ctx context.Context, id int64) (catalog.Resource, error) {
	res, ok := f.resources[id]
	if !ok {
		return catalog.Resource{}, catalog.ErrNotFound
	}
	return res, nil
}

var (
	employee = policy.Actor{ID: 1, Handle: "alice", Role: policy.RoleEmployee}
	manager  = policy.Actor{ID: 2, Handle: "bob", Role: policy.RoleManager}
	admin    = policy.Actor{ID: 3, Handle: "carol", Role: policy.RoleAdmin}
)

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	repo.requester = actors.Actor{ID: employee.ID, Handle: employee.Handle, Role: employee.Role}
	gitlab := catalog.Resource{
		ID:          10,
		Name:        "GitLab",
		AccessKinds: []catalog.AccessKind{catalog.AccessRead, catalog.AccessWrite},
	}
	repo.resources[gitlab.ID] = gitlab
	cat := fakeCatalog{resources: map[int64]catalog.Resource{gitlab.ID: gitlab}}
	return NewService(repo, cat, nil, nil), repo
}

func TestCreateRequiresEmployeeRole(t *testing.T) {
	svc, _ := newTestService(t)
	input := CreateInput{ResourceID: 10, AccessKind: "Read", Reason: "need code access"}

	for _, actor := range []policy.Actor{manager, admin} {
		_, err := svc.Create(context.Background(), actor, input)
		require.ErrorIs(t, err, ErrForbidden, "role %s", actor.Role)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []CreateInput{
		{AccessKind: "Read", Reason: "x"},
		{ResourceID: 10, Reason: "x"},
		{ResourceID: 10, AccessKind: "Read", Reason: "   "},
	}
	for _, input := range cases {
		_, err := svc.Create(context.Background(), employee, input)
		require.ErrorIs(t, err, ErrValidation)
	}
}

func TestCreateUnknownResource(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), employee, CreateInput{ResourceID: 99, AccessKind: "Read", Reason: "x"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRejectsUnpermittedKind(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), employee, CreateInput{ResourceID: 10, AccessKind: "Admin", Reason: "x"})
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "invalid access type")
}

func TestCreateStartsPending(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), employee, CreateInput{ResourceID: 10, AccessKind: "Write", Reason: "deploy pipeline"})
	require.NoError(t, err)
	require.Equal(t, StatusPending, created.Status)
	require.Equal(t, catalog.AccessKind("Write"), created.AccessKind)
	require.Equal(t, employee.ID, created.Requester.ID)
	require.Equal(t, "GitLab", created.Resource.Name)
}

func TestCreateAllowsDuplicatePending(t *testing.T) {
	svc, repo := newTestService(t)
	input := CreateInput{ResourceID: 10, AccessKind: "Read", Reason: "same reason"}

	first, err := svc.Create(context.Background(), employee, input)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), employee, input)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	pending, err := repo.ListByStatus(context.Background(), StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
}

func TestListPendingManagerOnly(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), employee, CreateInput{ResourceID: 10, AccessKind: "Read", Reason: "x"})
	require.NoError(t, err)

	pending, err := svc.ListPending(context.Background(), manager)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	for _, actor := range []policy.Actor{employee, admin} {
		_, err := svc.ListPending(context.Background(), actor)
		require.ErrorIs(t, err, ErrForbidden, "role %s", actor.Role)
	}
}

func TestListAllAdminOnly(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), employee, CreateInput{ResourceID: 10, AccessKind: "Read", Reason: "x"})
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), manager, created.ID, "Approved")
	require.NoError(t, err)

	all, err := svc.ListAll(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, all, 1)

	for _, actor := range []policy.Actor{employee, manager} {
		_, err := svc.ListAll(context.Background(), actor)
		require.ErrorIs(t, err, ErrForbidden, "role %s", actor.Role)
	}
}

func TestTransitionAcceptsLiteralStatusesOnly(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), employee, CreateInput{ResourceID: 10, AccessKind: "Read", Reason: "x"})
	require.NoError(t, err)

	for _, raw := range []string{"", "approved", "APPROVED", "Pending", "Denied"} {
		_, err := svc.Transition(context.Background(), manager, created.ID, raw)
		require.ErrorIs(t, err, ErrValidation, "status %q must be rejected", raw)
	}
}

func TestTransitionRequiresReviewerRole(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), employee, CreateInput{ResourceID: 10, AccessKind: "Read", Reason: "x"})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), employee, created.ID, "Approved")
	require.ErrorIs(t, err, ErrForbidden)

	// Validation is checked before authorization.
	_, err = svc.Transition(context.Background(), employee, created.ID, "bogus")
	require.ErrorIs(t, err, ErrValidation)
}

func TestTransitionUnknownRequest(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Transition(context.Background(), manager, 404, "Approved")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransitionAppliesUnconditionally(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), employee, CreateInput{ResourceID: 10, AccessKind: "Read", Reason: "x"})
	require.NoError(t, err)

	approved, err := svc.Transition(context.Background(), manager, created.ID, "Approved")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)

	// A resolved request can be re-decided; the last write wins.
	rejected, err := svc.Transition(context.Background(), admin, created.ID, "Rejected")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
}

func TestDeleteAdminOnly(t *testing.T) {
	svc, repo := newTestService(t)
	created, err := svc.Create(context.Background(), employee, CreateInput{ResourceID: 10, AccessKind: "Read", Reason: "x"})
	require.NoError(t, err)

	for _, actor := range []policy.Actor{employee, manager} {
		err := svc.Delete(context.Background(), actor, created.ID)
		require.ErrorIs(t, err, ErrForbidden, "role %s", actor.Role)
	}

	require.NoError(t, svc.Delete(context.Background(), admin, created.ID))
	_, err = repo.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(context.Background(), admin, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryChecksExistence(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.History(context.Background(), admin, 404)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.History(context.Background(), manager, 404)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestRequestLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, employee, CreateInput{ResourceID: 10, AccessKind: "Write", Reason: "release automation"})
	require.NoError(t, err)
	require.Equal(t, StatusPending, created.Status)

	pending, err := svc.ListPending(ctx, manager)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, created.ID, pending[0].ID)

	resolved, err := svc.Transition(ctx, manager, created.ID, "Approved")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, resolved.Status)

	pending, err = svc.ListPending(ctx, manager)
	require.NoError(t, err)
	require.Empty(t, pending)

	all, err := svc.ListAll(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, StatusApproved, all[0].Status)
}

func TestCreatePropagatesTxError(t *testing.T) {
	repo := newMemoryRepo()
	repo.requester = actors.Actor{ID: employee.ID, Handle: employee.Handle, Role: employee.Role}
	gitlab := catalog.Resource{ID: 10, Name: "GitLab", AccessKinds: []catalog.AccessKind{catalog.AccessRead}}
	repo.resources[gitlab.ID] = gitlab
	svc := NewService(failingRepo{inner: repo}, fakeCatalog{resources: map[int64]catalog.Resource{10: gitlab}}, nil, nil)

	_, err := svc.Create(context.Background(), employee, CreateInput{ResourceID: 10, AccessKind: "Read", Reason: "x"})
	require.Error(t, err)
	require.True(t, errors.Is(err, errBoom))
}

var errBoom = errors.New("storage exploded")

type failingRepo struct {
	inner *memoryRepo
}

func (f failingRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return errBoom
}

func (f failingRepo) Get(ctx context.Context, id int64) (Request, error) {
	return f.inner.Get(ctx, id)
}

func (f failingRepo) ListByStatus(ctx context.Context, status Status) ([]Request, error) {
	return f.inner.ListByStatus(ctx, status)
}

func (f failingRepo) ListAll(ctx context.Context) ([]Request, error) {
	return f.inner.ListAll(ctx)
}
