// Package entity contains the core business objects of the store.
package entity

import "slices"

// Role is a permission level carried in access tokens.
type Role string

const (
	// RoleCustomer is granted on registration.
	RoleCustomer Role = "cliente"
	// RoleAdmin manages the catalog, order states and the point of sale.
	RoleAdmin Role = "admin"
)

var knownRoles = []Role{RoleCustomer, RoleAdmin}

func (r Role) String() string {
	return string(r)
}

// IsValid reports whether r is one of the store's roles.
func (r Role) IsValid() bool {
	return slices.Contains(knownRoles, r)
}

// Roles is the role set of one user.
type Roles []Role

// Contains reports whether role is in the set.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

// ToStrings renders the set for token claims.
func (rs Roles) ToStrings() []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, string(r))
	}

	return out
}

// RolesFromStrings reads token claims back, dropping anything unknown.
func RolesFromStrings(ss []string) Roles {
	out := make(Roles, 0, len(ss))
	for _, s := range ss {
		if r := Role(s); r.IsValid() {
			out = append(out, r)
		}
	}

	return out
}
