// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bloodbank/internal/apperr"
	"github.com/iliyamo/bloodbank/internal/config"
	"github.com/iliyamo/bloodbank/internal/handler"
	"github.com/iliyamo/bloodbank/internal/logging"
	"github.com/iliyamo/bloodbank/internal/middleware"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	DB        *sql.DB
	Auth      *handler.AuthHandler
	Profile   *handler.ProfileHandler
	Inventory *handler.InventoryHandler
	Donation  *handler.DonationHandler
	Request   *handler.RequestHandler
	Support   *handler.SupportHandler
	Dashboard *handler.DashboardHandler
	Admin     *handler.AdminHandler
}

// Options carries the cross-cutting settings of the HTTP stack.
type Options struct {
	Cfg   config.Config
	Redis *redis.Client // nil disables caching and rate limiting
	Log   logging.Logger
}

// New builds the echo instance with the global middleware chain and all
// routes registered.
func New(h Handlers, o Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(o.Log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.CORS())
	e.Use(middleware.AccessLog(o.Log))
	e.Use(middleware.RequestTimeout(o.Cfg.RequestTimeout))

	RegisterPublic(e, h, o)
	RegisterDonor(e, h, o)
	RegisterStaff(e, h, o)
	RegisterAdmin(e, h, o)
	return e
}

// rateLimit is the per-caller token bucket. Guarded groups mount it
// after JWTAuth so the key carries the authenticated user id.
func rateLimit(o Options) echo.MiddlewareFunc {
	return middleware.NewTokenBucket(o.Cfg.RateLimit, o.Redis, o.Log)
}

// RegisterPublic registers the routes that need no token: health, auth,
// FAQs and the contact form.  Login and register get their own, smaller
// rate limit bucket.
func RegisterPublic(e *echo.Echo, h Handlers, o Options) {
	e.GET("/healthz", handler.Health(h.DB))

	login := o.Cfg.RateLimit
	login.Capacity = login.LoginCapacity
	login.Prefix += ":auth"
	authLimit := middleware.NewTokenBucket(login, o.Redis, o.Log)
	limit := rateLimit(o)

	api := e.Group("/api")
	api.POST("/register", h.Auth.Register, authLimit)
	api.POST("/login", h.Auth.Login, authLimit)
	api.GET("/faqs", handler.FAQs, limit, middleware.NewRedisCache(o.Cfg.Cache, o.Redis, o.Log))
	api.POST("/contact", h.Support.Contact, limit)
}

// ErrorHandler renders every error as `{"error": message}`.  Internal
// errors are logged with the request id and reported generically.
func ErrorHandler(log logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "internal server error"
		if ae, ok := apperr.As(err); ok {
			status = ae.StatusCode()
			msg = ae.Message
		} else if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			msg = fmt.Sprint(he.Message)
			if he.Internal != nil {
				err = fmt.Errorf("%v: %w", he.Message, he.Internal)
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error(c.Request().Context(), "request failed",
				"err", err,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"path", c.Path(),
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, echo.Map{"error": msg})
		}
		if werr != nil {
			log.Error(c.Request().Context(), "write error response", "err", werr)
		}
	}
}
