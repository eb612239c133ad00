package auth

import (
	"context"
	"slices"

	"github.com/jmylchreest/themesd/internal/models"
)

// PermissionEvaluator decides whether a user holds a capability.
// A nil user is anonymous and holds nothing.
type PermissionEvaluator interface {
	HasCapability(ctx context.Context, user *models.User, capability Capability) (bool, error)
}

// RoleEvaluator grants capabilities by role name.
type RoleEvaluator struct {
	roles map[string][]Capability
}

// NewRoleEvaluator creates an evaluator over roles. Nil selects DefaultRoles.
func NewRoleEvaluator(roles map[string][]Capability) *RoleEvaluator {
	if roles == nil {
		roles = DefaultRoles()
	}
	return &RoleEvaluator{roles: roles}
}

// HasCapability reports whether user's role grants capability.
// Disabled accounts and unknown roles hold no capabilities.
func (e *RoleEvaluator) HasCapability(_ context.Context, user *models.User, capability Capability) (bool, error) {
	if user == nil || !user.IsEnabled() {
		return false, nil
	}
	return slices.Contains(e.roles[user.Role], capability), nil
}

// KnownRole reports whether role exists in the evaluator's mapping.
func (e *RoleEvaluator) KnownRole(role string) bool {
	_, ok := e.roles[role]
	return ok
}

// Roles returns the sorted role names the evaluator knows.
func (e *RoleEvaluator) Roles() []string {
	names := make([]string, 0, len(e.roles))
	for name := range e.roles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
