// Package policy holds the role/action decision table gating every operation
// in the service, together with the authenticated actor identity it judges.
package policy

import "fmt"

// Role is the closed set of actor roles.
type Role string

const (
	RoleEmployee Role = "Employee"
	RoleManager  Role = "Manager"
	RoleAdmin    Role = "Admin"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleEmployee, RoleManager, RoleAdmin:
		return Role(raw), nil
	}
	return "", fmt.Errorf("policy: unknown role %q", raw)
}

// Action enumerates every gated operation.
type Action string

const (
	ActionCreateRequest     Action = "request.create"
	ActionReviewRequests    Action = "request.review"
	ActionTransitionRequest Action = "request.transition"
	ActionListAllRequests   Action = "request.list_all"
	ActionDeleteRequest     Action = "request.delete"
	ActionCreateResource    Action = "resource.create"
	ActionListResources     Action = "resource.list"
	ActionListActors        Action = "actor.list"
	ActionChangeActorRole   Action = "actor.change_role"
	ActionDeleteActor       Action = "actor.delete"
)

// grants maps each action to the roles allowed to perform it. Absence means
// deny, so an unknown action is denied for every role.
var grants = map[Action]map[Role]bool{
	ActionCreateRequest:     {RoleEmployee: true},
	ActionReviewRequests:    {RoleManager: true},
	ActionTransitionRequest: {RoleManager: true, RoleAdmin: true},
	ActionListAllRequests:   {RoleAdmin: true},
	ActionDeleteRequest:     {RoleAdmin: true},
	ActionCreateResource:    {RoleAdmin: true},
	ActionListResources:     {RoleEmployee: true, RoleManager: true, RoleAdmin: true},
	ActionListActors:        {RoleAdmin: true},
	ActionChangeActorRole:   {RoleAdmin: true},
	ActionDeleteActor:       {RoleAdmin: true},
}

// Can reports whether role may perform action. Pure lookup, no hidden state.
func Can(role Role, action Action) bool {
	return grants[action][role]
}

// Actor is the authenticated identity injected by the auth middleware.
// It carries no credential material.
type Actor struct {
	ID     int64
	Handle string
	Role   Role
}
