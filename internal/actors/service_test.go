package actors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/accesshub/accesshub/internal/policy"
)

type memoryDirectory struct {
	actors map[int64]Actor
}

func newMemoryDirectory(seed ...Actor) *memoryDirectory {
	dir := &memoryDirectory{actors: make(map[int64]Actor)}
	for _, a := range seed {
		dir.actors[a.ID] = a
	}
	return dir
}

func (d *memoryDirectory) List(ctx context.Context) ([]Actor, error) {
	out := make([]Actor, 0, len(d.actors))
	for id := int64(1); id <= int64(len(d.actors))+10; id++ {
		if a, ok := d.actors[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (d *memoryDirectory) Get(ctx context.Context, id int64) (Actor, error) {
	a, ok := d.actors[id]
	if !ok {
		return Actor{}, ErrNotFound
	}
	return a, nil
}

func (d *memoryDirectory) UpdateRole(ctx context.Context, id int64, role policy.Role) (Actor, error) {
	a, ok := d.actors[id]
	if !ok {
		return Actor{}, ErrNotFound
	}
	a.Role = role
	d.actors[id] = a
	return a, nil
}

func (d *memoryDirectory) Delete(ctx context.Context, id int64) error {
	if _, ok := d.actors[id]; !ok {
		return ErrNotFound
	}
	delete(d.actors, id)
	return nil
}

var (
	adminActor    = policy.Actor{ID: 1, Handle: "carol", Role: policy.RoleAdmin}
	managerActor  = policy.Actor{ID: 2, Handle: "bob", Role: policy.RoleManager}
	employeeActor = policy.Actor{ID: 3, Handle: "alice", Role: policy.RoleEmployee}
)

func newTestService() (*Service, *memoryDirectory) {
	dir := newMemoryDirectory(
		Actor{ID: 1, Handle: "carol", Role: policy.RoleAdmin},
		Actor{ID: 2, Handle: "bob", Role: policy.RoleManager},
		Actor{ID: 3, Handle: "alice", Role: policy.RoleEmployee},
	)
	return NewService(dir, nil), dir
}

func TestListAdminOnly(t *testing.T) {
	svc, _ := newTestService()

	listed, err := svc.List(context.Background(), adminActor)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	for _, actor := range []policy.Actor{managerActor, employeeActor} {
		_, err := svc.List(context.Background(), actor)
		require.ErrorIs(t, err, ErrForbidden, "role %s", actor.Role)
	}
}

func TestChangeRole(t *testing.T) {
	svc, dir := newTestService()

	updated, err := svc.ChangeRole(context.Background(), adminActor, employeeActor.ID, "Manager")
	require.NoError(t, err)
	require.Equal(t, policy.RoleManager, updated.Role)
	require.Equal(t, policy.RoleManager, dir.actors[employeeActor.ID].Role)
}

func TestChangeRoleRequiresAdmin(t *testing.T) {
	svc, _ := newTestService()
	for _, actor := range []policy.Actor{managerActor, employeeActor} {
		_, err := svc.ChangeRole(context.Background(), actor, employeeActor.ID, "Manager")
		require.ErrorIs(t, err, ErrForbidden, "role %s", actor.Role)
	}
}

func TestChangeRoleValidatesRole(t *testing.T) {
	svc, _ := newTestService()
	for _, raw := range []string{"", "manager", "Root"} {
		_, err := svc.ChangeRole(context.Background(), adminActor, employeeActor.ID, raw)
		require.ErrorIs(t, err, ErrValidation, "role %q must be rejected", raw)
	}
}

func TestChangeRoleUnknownTarget(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.ChangeRole(context.Background(), adminActor, 404, "Manager")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestChangeRoleSelfDemotionBlocked(t *testing.T) {
	svc, dir := newTestService()

	for _, raw := range []string{"Manager", "Employee"} {
		_, err := svc.ChangeRole(context.Background(), adminActor, adminActor.ID, raw)
		require.ErrorIs(t, err, ErrValidation, "demotion to %s must be blocked", raw)
		require.Contains(t, err.Error(), "cannot change your own admin role")
	}
	require.Equal(t, policy.RoleAdmin, dir.actors[adminActor.ID].Role)

	// Reassigning the own role to Admin is a permitted no-op.
	updated, err := svc.ChangeRole(context.Background(), adminActor, adminActor.ID, "Admin")
	require.NoError(t, err)
	require.Equal(t, policy.RoleAdmin, updated.Role)
}

func TestDeleteActor(t *testing.T) {
	svc, dir := newTestService()

	require.NoError(t, svc.Delete(context.Background(), adminActor, employeeActor.ID))
	_, ok := dir.actors[employeeActor.ID]
	require.False(t, ok)

	err := svc.Delete(context.Background(), adminActor, employeeActor.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	svc, _ := newTestService()
	for _, actor := range []policy.Actor{managerActor, employeeActor} {
		err := svc.Delete(context.Background(), actor, employeeActor.ID)
		require.ErrorIs(t, err, ErrForbidden, "role %s", actor.Role)
	}
}

func TestDeleteSelfBlocked(t *testing.T) {
	svc, dir := newTestService()

	err := svc.Delete(context.Background(), adminActor, adminActor.ID)
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "cannot delete your own admin account")
	_, ok := dir.actors[adminActor.ID]
	require.True(t, ok)
}
