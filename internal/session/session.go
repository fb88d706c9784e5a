// Package session carries the authenticated caller through a request.
// The JWT middleware builds a Session from verified token claims and
// attaches it to both the echo context and the request's context.Context,
// so handlers and services read identity explicitly instead of poking at
// untyped context keys.
package session

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/model"
)

// Claims is the decoded identity carried by a session token.
type Claims struct {
	UserID     uint64
	Email      string
	Role       model.Role
	BloodGroup model.BloodGroup
}

// Session is the per-request view of the caller.
type Session struct {
	Claims
	Token string // raw bearer token, kept for downstream calls
}

type ctxKey struct{}

// echoKey is the echo.Context key under which the session is stored.
const echoKey = "session"

// WithContext returns a copy of ctx carrying s.
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// Attach stores s on the echo context and on its request context.
func Attach(c echo.Context, s *Session) {
	c.Set(echoKey, s)
	req := c.Request()
	c.SetRequest(req.WithContext(WithContext(req.Context(), s)))
}

// From returns the session attached to c, or nil for anonymous requests.
func From(c echo.Context) *Session {
	if s, ok := c.Get(echoKey).(*Session); ok {
		return s
	}
	if s, ok := FromContext(c.Request().Context()); ok {
		return s
	}
	return nil
}
