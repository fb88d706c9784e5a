package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/session"
)

// userID returns the caller's id as a string for log fields and rate
// limit keys, or "guest" for anonymous requests.
func userID(c echo.Context) string {
	if s := session.From(c); s != nil && s.UserID != 0 {
		return strconv.FormatUint(s.UserID, 10)
	}
	return "guest"
}
