package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/apperr"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/repository"
	"github.com/iliyamo/bloodbank/internal/service"
	"github.com/iliyamo/bloodbank/internal/session"
)

// maxDonationML bounds a single recorded unit.
const maxDonationML = 1000

// DonationHandler serves donation history and staff recording.
type DonationHandler struct {
	Users     *repository.UserRepo
	Donations *repository.DonationRepo
	Ledger    *service.Ledger  // stock mutations go through here
	Now       func() time.Time // overridden in tests
}

// NewDonationHandler wires donation endpoints to the ledger.
func NewDonationHandler(u *repository.UserRepo, d *repository.DonationRepo, l *service.Ledger) *DonationHandler {
	return &DonationHandler{Users: u, Donations: d, Ledger: l, Now: time.Now}
}

// targetDonor resolves whose donations the caller acts on.  Staff and
// admins may name any donor; everyone else only themselves.
func targetDonor(s *session.Session, id uint64) (uint64, error) {
	if id == 0 {
		return s.UserID, nil
	}
	if id != s.UserID && !s.Role.IsStaff() {
		return 0, apperr.Forbidden("forbidden")
	}
	return id, nil
}

// List returns a page of the donor's history, or with ?distinct=centers
// or ?distinct=statuses the values available for the filter dropdowns.
func (h *DonationHandler) List(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	var donorParam uint64
	if v := c.QueryParam("donor_id"); v != "" {
		if donorParam, err = strconv.ParseUint(v, 10, 64); err != nil || donorParam == 0 {
			return apperr.Validation("invalid donor_id")
		}
	}
	donor, err := targetDonor(s, donorParam)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if facet := c.QueryParam("distinct"); facet != "" {
		if facet != repository.FacetCenters && facet != repository.FacetStatuses {
			return apperr.Validation("distinct must be centers or statuses")
		}
		values, err := h.Donations.Distinct(ctx, donor, facet)
		if err != nil {
			return apperr.Internal(err)
		}
		return c.JSON(http.StatusOK, echo.Map{facet: values})
	}

	page, err := parsePage(c)
	if err != nil {
		return err
	}
	var f model.DonationFilter
	if v := c.QueryParam("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1900 || y > 9999 {
			return apperr.Validation("invalid year")
		}
		f.Year = y
	}
	f.Center = strings.TrimSpace(c.QueryParam("center"))
	if v := c.QueryParam("status"); v != "" {
		st, err := model.ParseDonationStatus(v)
		if err != nil {
			return apperr.Validation("invalid status")
		}
		f.Status = st
	}

	items, total, err := h.Donations.ListByDonor(ctx, donor, f, page)
	if err != nil {
		return apperr.Internal(err)
	}
	views := make([]donationView, 0, len(items))
	for _, d := range items {
		views = append(views, newDonationView(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"donations": views, "pagination": newPagination(page, total)})
}

type donationReq struct {
	DonorID    uint64 `json:"donor_id"`
	DonatedOn  string `json:"donated_on"`
	Center     string `json:"center"`
	QuantityML int    `json:"quantity_ml"`
	Status     string `json:"status"`
}

// Create records a donation.  The unit takes the donor's blood group;
// available units are added to the inventory in the same transaction.
func (h *DonationHandler) Create(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	var req donationReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	donor, err := targetDonor(s, req.DonorID)
	if err != nil {
		return err
	}

	today := service.Today(h.Now)
	donatedOn, err := parseDate(req.DonatedOn, today, "donated_on")
	if err != nil {
		return err
	}
	if donatedOn.After(today) {
		return apperr.Validation("donated_on cannot be in the future")
	}
	center := strings.TrimSpace(req.Center)
	if center == "" {
		return apperr.Validation("center required")
	}
	if req.QuantityML <= 0 || req.QuantityML > maxDonationML {
		return apperr.Validation("quantity_ml must be between 1 and 1000")
	}
	status := model.DonationAvailable
	if req.Status != "" {
		st, err := model.ParseDonationStatus(req.Status)
		if err != nil {
			return apperr.Validation("invalid status")
		}
		status = st
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, donor)
	if err != nil {
		return storeError(err)
	}
	if u.BloodGroup == "" {
		return apperr.Validation("donor has no blood group on file")
	}

	d := &model.Donation{
		DonorID:    donor,
		BloodGroup: u.BloodGroup,
		DonatedOn:  donatedOn,
		QuantityML: uint32(req.QuantityML),
		Center:     center,
		Status:     status,
	}
	if err := h.Ledger.RecordDonation(ctx, d, s.UserID); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"donation": newDonationView(*d)})
}

type donationStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus expires an available unit, removing it from inventory.
func (h *DonationHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req donationStatusReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	st, err := model.ParseDonationStatus(req.Status)
	if err != nil {
		return apperr.Validation("invalid status")
	}
	if st != model.DonationExpired {
		return apperr.Validation("only expiring a unit is supported; units are used through request fulfillment")
	}

	d, err := h.Ledger.ExpireDonation(c.Request().Context(), id)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"donation": newDonationView(d)})
}
