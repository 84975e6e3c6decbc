package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of user roles.
type Role string

// Role constants define the allowed user roles.
const (
	RoleBuyer    Role = "BUYER"
	RolePromoter Role = "PROMOTER"
	RoleAdmin    Role = "ADMIN"
)

// ValidRoles returns every role known to the system.
func ValidRoles() []Role {
	return []Role{RoleBuyer, RolePromoter, RoleAdmin}
}

// SelfAssignableRoles returns the roles a user may pick at registration.
func SelfAssignableRoles() []Role {
	return []Role{RoleBuyer, RolePromoter}
}

// IsValid reports whether r is one of ValidRoles.
func (r Role) IsValid() bool {
	switch r {
	case RoleBuyer, RolePromoter, RoleAdmin:
		return true
	}
	return false
}

// IsSelfAssignable reports whether r may be chosen at registration.
func (r Role) IsSelfAssignable() bool {
	return r == RoleBuyer || r == RolePromoter
}

func (r Role) String() string { return string(r) }

// ParseRole parses a role name case-insensitively. An empty string yields
// RoleBuyer. Unknown names, including the legacy CUSTOMER, are rejected.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoleBuyer, nil
	}
	r := Role(strings.ToUpper(s))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
