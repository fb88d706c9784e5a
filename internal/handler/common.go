package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/apperr"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/repository"
	"github.com/iliyamo/bloodbank/internal/session"
)

// dateLayout is the wire format of calendar dates.
const dateLayout = time.DateOnly

// Page sizes accepted by list endpoints.
var allowedPageSizes = map[int]bool{5: true, 10: true, 25: true}

const defaultPageSize = 10

// currentSession returns the caller's session or an auth error.
func currentSession(c echo.Context) (*session.Session, error) {
	s := session.From(c)
	if s == nil || s.UserID == 0 {
		return nil, apperr.Unauthorized("authentication required")
	}
	return s, nil
}

// parsePage reads ?page and ?pageSize.  Missing values take the
// defaults; anything else invalid is a validation error.
func parsePage(c echo.Context) (model.Page, error) {
	p := model.Page{Number: 1, Size: defaultPageSize}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, apperr.Validation("page must be a positive integer")
		}
		p.Number = n
	}
	if v := c.QueryParam("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !allowedPageSizes[n] {
			return p, apperr.Validation("pageSize must be one of 5, 10, 25")
		}
		p.Size = n
	}
	return p, nil
}

type paginationView struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func newPagination(p model.Page, total int) paginationView {
	return paginationView{Page: p.Number, PageSize: p.Size, Total: total, TotalPages: p.TotalPages(total)}
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return id, nil
}

// parseDate parses a YYYY-MM-DD date.  An empty string yields def.
func parseDate(s string, def time.Time, field string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, apperr.Validation(field + " must be a YYYY-MM-DD date")
	}
	return t, nil
}

func formatDate(t time.Time) string { return t.UTC().Format(dateLayout) }

// storeError maps repository sentinels to API errors.  Anything else is
// an internal error whose cause is logged but not shown to the client.
func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("not found")
	case errors.Is(err, repository.ErrEmailExists):
		return apperr.Conflict("email already exists")
	case errors.Is(err, repository.ErrInsufficientStock):
		return apperr.Conflict("insufficient stock")
	case errors.Is(err, repository.ErrInvalidTransition):
		return apperr.Conflict("invalid status transition")
	case errors.Is(err, repository.ErrConflict):
		return apperr.Conflict("conflict")
	case errors.Is(err, repository.ErrForbidden):
		return apperr.Forbidden("forbidden")
	}
	return apperr.Internal(err)
}

// ----- views -----

type userView struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Gender     string `json:"gender"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	BloodGroup string `json:"blood_group"`
}

func newUserView(u model.User) userView {
	return userView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role.String(),
		Gender:     u.Gender,
		Phone:      u.Phone,
		Address:    u.Address,
		BloodGroup: u.BloodGroup.String(),
	}
}

type donationView struct {
	ID         uint64 `json:"id"`
	DonorID    uint64 `json:"donor_id"`
	BloodGroup string `json:"blood_group"`
	DonatedOn  string `json:"donated_on"`
	QuantityML uint32 `json:"quantity_ml"`
	Center     string `json:"center"`
	Status     string `json:"status"`
}

func newDonationView(d model.Donation) donationView {
	return donationView{
		ID:         d.ID,
		DonorID:    d.DonorID,
		BloodGroup: d.BloodGroup.String(),
		DonatedOn:  formatDate(d.DonatedOn),
		QuantityML: d.QuantityML,
		Center:     d.Center,
		Status:     string(d.Status),
	}
}

type requestView struct {
	ID          uint64 `json:"id"`
	RequestedBy uint64 `json:"requested_by"`
	PatientName string `json:"patient_name"`
	BloodGroup  string `json:"blood_group"`
	RequestedML uint32 `json:"requested_ml"`
	Hospital    string `json:"hospital"`
	RequestedOn string `json:"requested_on"`
	Status      string `json:"status"`
}

func newRequestView(r model.Request) requestView {
	return requestView{
		ID:          r.ID,
		RequestedBy: r.RequestedBy,
		PatientName: r.PatientName,
		BloodGroup:  r.BloodGroup.String(),
		RequestedML: r.RequestedML,
		Hospital:    r.Hospital,
		RequestedOn: formatDate(r.RequestedOn),
		Status:      string(r.Status),
	}
}
