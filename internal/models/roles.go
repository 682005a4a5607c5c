package models

import "strings"

// Role identifies what a user may do across the product.
//
// The in-process value is lowercase (owner, employee, superadmin); the wire
// representation used by the REST API is uppercase.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleEmployee   Role = "employee"
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole accepts either casing and reports whether the role is known.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleOwner, RoleEmployee, RoleSuperAdmin:
		return r, true
	}
	return r, false
}

// Wire returns the uppercase form sent to and stored by the backend.
func (r Role) Wire() string {
	return strings.ToUpper(string(r))
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.Wire()), nil
}

// UnmarshalText keeps unknown roles as-is so routing can treat them as
// unauthorized instead of failing the whole decode.
func (r *Role) UnmarshalText(b []byte) error {
	*r, _ = ParseRole(string(b))
	return nil
}

// UserStatus reports whether an account may sign in.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserDisabled UserStatus = "disabled"
)
