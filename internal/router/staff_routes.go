package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/middleware"
	"github.com/iliyamo/bloodbank/internal/model"
)

// RegisterStaff registers ledger operations reserved for Staff and Admin.
func RegisterStaff(e *echo.Echo, h Handlers, o Options) {
	g := e.Group(
		"/api",
		middleware.JWTAuth(o.Cfg.JWTSecret),
		middleware.RequireRole(model.RoleStaff, model.RoleAdmin),
		rateLimit(o),
	)
	g.PATCH("/donations/:id/status", h.Donation.UpdateStatus)
	g.POST("/requests/:id/fulfill", h.Request.Fulfill)
}

// RegisterAdmin registers account management under /api/admin.
func RegisterAdmin(e *echo.Echo, h Handlers, o Options) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(o.Cfg.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
		rateLimit(o),
	)
	g.GET("/users", h.Admin.ListUsers)
	g.PUT("/users/:id/role", h.Admin.SetRole)
}
