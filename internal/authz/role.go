// Package authz classifies principals by role and decides which views they may
// open and which mutations they may issue.
package authz

import (
	"fmt"
	"strings"
)

// Role is the closed set of principal classes.
type Role string

const (
	RoleAnonymous  Role = "ANONYMOUS"
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperadmin Role = "SUPERADMIN"
)

// ParseRole accepts any casing. The empty string is ANONYMOUS.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case "", RoleAnonymous:
		return RoleAnonymous, nil
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleSuperadmin:
		return RoleSuperadmin, nil
	}
	return RoleAnonymous, fmt.Errorf("authz: unknown role %q", s)
}

// Assignable reports whether r can be stored on a user account.
func (r Role) Assignable() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleSuperadmin
}

// IsStaff reports ADMIN or SUPERADMIN.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

func (r Role) String() string { return string(r) }

// Principal is the current actor as exposed by the session.
type Principal struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

// Anonymous is the principal used when no credential is present.
var Anonymous = Principal{Role: RoleAnonymous}

// Authenticated reports whether the principal carries a real account.
func (p Principal) Authenticated() bool {
	return p.Role.Assignable()
}

// EffectiveRole maps the zero value to ANONYMOUS.
func (p Principal) EffectiveRole() Role {
	if p.Role == "" {
		return RoleAnonymous
	}
	return p.Role
}

// PrincipalSource exposes the current principal; the session implements it.
type PrincipalSource interface {
	Principal() Principal
}

// Fixed is a PrincipalSource that always returns the same principal.
type Fixed Principal

// Principal implements PrincipalSource.
func (f Fixed) Principal() Principal { return Principal(f) }
