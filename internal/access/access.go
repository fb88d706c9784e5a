// Package access implements the role gate applied to every protected
// route.  Admit is a pure predicate over the caller's claims and the
// route's configured role set.
package access

import (
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/session"
)

// Decision is the outcome of an admission check.
type Decision int

const (
	Allow Decision = iota
	// LoginRequired: no valid claims.  HTTP 401.
	LoginRequired
	// Forbidden: authenticated, but the role is not in the required set.  HTTP 403.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case LoginRequired:
		return "login required"
	case Forbidden:
		return "forbidden"
	}
	return "unknown"
}

// Admit decides whether claims may use a capability restricted to
// required.  An empty required set admits any authenticated caller.
func Admit(claims *session.Claims, required ...model.Role) Decision {
	if claims == nil || claims.UserID == 0 || !claims.Role.Valid() {
		return LoginRequired
	}
	if len(required) == 0 {
		return Allow
	}
	for _, r := range required {
		if roleMatches(claims.Role, r) {
			return Allow
		}
	}
	return Forbidden
}

// roleMatches is an exhaustive comparison over the closed role set.
func roleMatches(have, want model.Role) bool {
	switch want {
	case model.RoleUser:
		return have == model.RoleUser
	case model.RoleStaff:
		return have == model.RoleStaff
	case model.RoleAdmin:
		return have == model.RoleAdmin
	}
	return false
}
