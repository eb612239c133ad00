// Package auth authenticates API callers and decides what they may do.
//
// Callers are mapped to a role; roles grant capabilities. Handlers ask a
// PermissionEvaluator whether the caller holds a capability before touching
// any theme data.
package auth

import "maps"

// Capability names a permission checked by the API.
type Capability string

// Capabilities used by the theme resource.
const (
	// CapSwitchThemes allows reading the installed themes.
	CapSwitchThemes Capability = "switch_themes"
	// CapDeleteThemes allows removing an installed theme.
	CapDeleteThemes Capability = "delete_themes"
)

// Built-in role names.
const (
	RoleAdministrator = "administrator"
	RoleEditor        = "editor"
	RoleAuthor        = "author"
	RoleSubscriber    = "subscriber"
)

// DefaultRoles returns the built-in role to capability mapping.
// Only administrators manage themes.
func DefaultRoles() map[string][]Capability {
	return map[string][]Capability{
		RoleAdministrator: {CapSwitchThemes, CapDeleteThemes},
		RoleEditor:        {},
		RoleAuthor:        {},
		RoleSubscriber:    {},
	}
}

// RolesFromConfig merges configured role overrides onto the defaults.
// A configured role replaces the default capability set for that role.
func RolesFromConfig(overrides map[string][]string) map[string][]Capability {
	roles := DefaultRoles()
	custom := make(map[string][]Capability, len(overrides))
	for role, caps := range overrides {
		set := make([]Capability, 0, len(caps))
		for _, c := range caps {
			set = append(set, Capability(c))
		}
		custom[role] = set
	}
	maps.Copy(roles, custom)
	return roles
}
