package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/apperr"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/repository"
	"github.com/iliyamo/bloodbank/internal/service"
)

const maxRequestML = 10000

// RequestHandler serves hospital blood requests and their fulfilment.
type RequestHandler struct {
	Requests *repository.RequestRepo
	Ledger   *service.Ledger  // fulfilment draws stock through here
	Now      func() time.Time // overridden in tests
}

// NewRequestHandler wires request endpoints to the ledger.
func NewRequestHandler(r *repository.RequestRepo, l *service.Ledger) *RequestHandler {
	return &RequestHandler{Requests: r, Ledger: l, Now: time.Now}
}

type requestReq struct {
	PatientName string `json:"patient_name"`
	BloodGroup  string `json:"blood_group"`
	RequestedML int    `json:"requested_ml"`
	Hospital    string `json:"hospital"`
	RequestedOn string `json:"requested_on"`
}

// Create files a pending request for blood.
func (h *RequestHandler) Create(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	var req requestReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	patient := strings.TrimSpace(req.PatientName)
	hospital := strings.TrimSpace(req.Hospital)
	if patient == "" || hospital == "" {
		return apperr.Validation("patient_name and hospital required")
	}
	group, err := model.ParseBloodGroup(req.BloodGroup)
	if err != nil {
		return apperr.Validation("invalid blood_group")
	}
	if req.RequestedML <= 0 || req.RequestedML > maxRequestML {
		return apperr.Validation("requested_ml must be between 1 and 10000")
	}
	requestedOn, err := parseDate(req.RequestedOn, service.Today(h.Now), "requested_on")
	if err != nil {
		return err
	}

	r := &model.Request{
		RequestedBy: s.UserID,
		PatientName: patient,
		BloodGroup:  group,
		RequestedML: uint32(req.RequestedML),
		Hospital:    hospital,
		RequestedOn: requestedOn,
		Status:      model.RequestPending,
	}
	if err := h.Requests.Create(c.Request().Context(), r); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"request": newRequestView(*r)})
}

// List returns the caller's requests; staff and admins see everyone's.
func (h *RequestHandler) List(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	page, err := parsePage(c)
	if err != nil {
		return err
	}
	var f repository.RequestFilter
	if !s.Role.IsStaff() {
		f.RequestedBy = s.UserID
	}
	if v := c.QueryParam("status"); v != "" {
		st, err := model.ParseRequestStatus(v)
		if err != nil {
			return apperr.Validation("invalid status")
		}
		f.Status = st
	}

	items, total, err := h.Requests.List(c.Request().Context(), f, page)
	if err != nil {
		return apperr.Internal(err)
	}
	views := make([]requestView, 0, len(items))
	for _, r := range items {
		views = append(views, newRequestView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": views, "pagination": newPagination(page, total)})
}

type transfusionView struct {
	DonationID   uint64 `json:"donation_id"`
	QuantityML   uint32 `json:"quantity_ml"`
	TransfusedOn string `json:"transfused_on"`
}

// Fulfill allocates available units to a pending request.
func (h *RequestHandler) Fulfill(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	res, err := h.Ledger.FulfillRequest(c.Request().Context(), id, s.UserID)
	if err != nil {
		return storeError(err)
	}
	units := make([]transfusionView, 0, len(res.Transfusions))
	for _, t := range res.Transfusions {
		units = append(units, transfusionView{DonationID: t.DonationID, QuantityML: t.QuantityML, TransfusedOn: formatDate(t.TransfusedOn)})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"request":      newRequestView(res.Request),
		"allocated_ml": res.AllocatedML,
		"transfusions": units,
	})
}

// Cancel withdraws a pending request.  Owners and staff only.
func (h *RequestHandler) Cancel(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	r, err := h.Ledger.CancelRequest(c.Request().Context(), id, s.Claims)
	if errors.Is(err, service.ErrNotOwner) {
		return apperr.Forbidden("forbidden")
	}
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"request": newRequestView(r)})
}
