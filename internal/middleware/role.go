package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/access"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/session"
)

// RequireRole admits the request only when the session's role is one of
// roles; with no roles any authenticated caller passes.  It must run
// after JWTAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var claims *session.Claims
			if s := session.From(c); s != nil {
				claims = &s.Claims
			}
			switch access.Admit(claims, roles...) {
			case access.Allow:
				return next(c)
			case access.LoginRequired:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			case access.Forbidden:
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
}
