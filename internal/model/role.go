package model

import (
	"errors"
	"strings"
)

// Role is the closed set of account roles.  The string form is what is
// stored in the `user.role` column and carried in the token's role claim.
type Role string

const (
	RoleUser  Role = "User"
	RoleStaff Role = "Staff"
	RoleAdmin Role = "Admin"
)

// ErrUnknownRole is returned by ParseRole for anything outside the enumeration.
var ErrUnknownRole = errors.New("unknown role")

// Roles lists every role in ascending privilege order.
var Roles = []Role{RoleUser, RoleStaff, RoleAdmin}

// ParseRole converts a case-insensitive role name into a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "staff":
		return RoleStaff, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", ErrUnknownRole
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r may act on behalf of other donors
// (recording donations, fulfilling requests).
func (r Role) IsStaff() bool {
	switch r {
	case RoleStaff, RoleAdmin:
		return true
	case RoleUser:
		return false
	}
	return false
}

func (r Role) String() string { return string(r) }
