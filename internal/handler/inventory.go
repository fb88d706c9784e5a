package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/apperr"
	"github.com/iliyamo/bloodbank/internal/repository"
)

// InventoryHandler serves the public stock view.
type InventoryHandler struct {
	Inventory *repository.InventoryRepo
}

// NewInventoryHandler returns an InventoryHandler reading from r.
func NewInventoryHandler(r *repository.InventoryRepo) *InventoryHandler {
	return &InventoryHandler{Inventory: r}
}

// List returns the eight per-group totals ordered by group name.
func (h *InventoryHandler) List(c echo.Context) error {
	items, err := h.Inventory.List(c.Request().Context())
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"inventory": items})
}
