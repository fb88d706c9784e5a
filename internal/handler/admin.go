package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/apperr"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/repository"
)

// AdminHandler serves account management for administrators.
type AdminHandler struct {
	Users *repository.UserRepo
}

// NewAdminHandler returns an AdminHandler backed by u.
func NewAdminHandler(u *repository.UserRepo) *AdminHandler { return &AdminHandler{Users: u} }

// ListUsers pages through every account.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return err
	}
	users, total, err := h.Users.List(c.Request().Context(), page)
	if err != nil {
		return apperr.Internal(err)
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": views, "pagination": newPagination(page, total)})
}

type roleReq struct {
	Role string `json:"role"`
}

// SetRole changes a user's role.  Admins cannot demote themselves.
func (h *AdminHandler) SetRole(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return apperr.Validation("role must be User, Staff or Admin")
	}
	if id == s.UserID && role != model.RoleAdmin {
		return apperr.Conflict("cannot remove your own admin role")
	}

	ctx := c.Request().Context()
	if err := h.Users.UpdateRole(ctx, id, role); err != nil {
		return storeError(err)
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": newUserView(u)})
}
