package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"Employee", "Manager", "Admin"} {
		role, err := ParseRole(raw)
		require.NoError(t, err)
		require.Equal(t, Role(raw), role)
	}

	for _, raw := range []string{"", "admin", "ADMIN", "Superuser", "employee "} {
		_, err := ParseRole(raw)
		require.Error(t, err, "role %q must be rejected", raw)
	}
}

func TestCanDecisionTable(t *testing.T) {
	cases := []struct {
		action   Action
		employee bool
		manager  bool
		admin    bool
	}{
		{ActionCreateRequest, true, false, false},
		{ActionReviewRequests, false, true, false},
		{ActionTransitionRequest, false, true, true},
		{ActionListAllRequests, false, false, true},
		{ActionDeleteRequest, false, false, true},
		{ActionCreateResource, false, false, true},
		{ActionListResources, true, true, true},
		{ActionListActors, false, false, true},
		{ActionChangeActorRole, false, false, true},
		{ActionDeleteActor, false, false, true},
	}
	require.Len(t, cases, len(grants), "every action must be covered")

	for _, tc := range cases {
		require.Equal(t, tc.employee, Can(RoleEmployee, tc.action), "%s employee", tc.action)
		require.Equal(t, tc.manager, Can(RoleManager, tc.action), "%s manager", tc.action)
		require.Equal(t, tc.admin, Can(RoleAdmin, tc.action), "%s admin", tc.action)
	}
}

func TestCanDeniesUnknown(t *testing.T) {
	require.False(t, Can(RoleAdmin, Action("request.mystery")))
	require.False(t, Can(Role("Intern"), ActionListResources))
}
