package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/session"
	"github.com/iliyamo/bloodbank/internal/utils"
)

// JWTAuth validates the Bearer token and attaches the caller's session
// to the request.  The secret must match the one used to issue tokens.
// Missing, malformed, badly signed and expired tokens all get a 401 with
// an `{error}` body.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := utils.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseToken(secret, raw)
			if errors.Is(err, utils.ErrTokenExpired) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
			}
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			session.Attach(c, &session.Session{Claims: *claims, Token: raw})
			return next(c)
		}
	}
}
