package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/middleware"
)

// RegisterDonor registers the endpoints open to any signed-in user under
// /api.  Handlers scope data to the caller; staff-only variants (such as
// ?donor_id on the history) are checked inside the handler.
func RegisterDonor(e *echo.Echo, h Handlers, o Options) {
	g := e.Group("/api", middleware.JWTAuth(o.Cfg.JWTSecret), middleware.RequireRole(), rateLimit(o))

	g.GET("/profile", h.Profile.Get)
	g.PUT("/profile", h.Profile.Update)
	g.GET("/inventory", h.Inventory.List)

	g.GET("/donations", h.Donation.List)
	g.POST("/donations", h.Donation.Create)

	g.POST("/request", h.Request.Create)
	g.GET("/requests", h.Request.List)
	g.POST("/requests/:id/cancel", h.Request.Cancel)

	g.POST("/support-query", h.Support.CreateQuery)

	g.GET("/eligibility", h.Dashboard.EligibilityStatus)
	g.GET("/appointments/upcoming", h.Dashboard.Upcoming)
	g.POST("/appointments", h.Dashboard.Book)
	g.GET("/reminders", h.Dashboard.Reminders)
	g.GET("/activity", h.Dashboard.RecentActivity)
}
