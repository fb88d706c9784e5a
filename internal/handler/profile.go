package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/apperr"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/repository"
	"github.com/iliyamo/bloodbank/internal/service"
)

// ProfileHandler serves the caller's own profile and eligibility.
type ProfileHandler struct {
	Users       *repository.UserRepo
	Eligibility *service.Evaluator // deferral rule with the shared clock
}

// NewProfileHandler wires profile endpoints to their stores.
func NewProfileHandler(u *repository.UserRepo, ev *service.Evaluator) *ProfileHandler {
	return &ProfileHandler{Users: u, Eligibility: ev}
}

type eligibilityView struct {
	Eligible         bool     `json:"eligible"`
	NextEligibleDate string   `json:"nextEligibleDate"`
	LastDonationDate *string  `json:"lastDonationDate"`
	DaysSinceLast    *int     `json:"daysSinceLast"`
	HealthTips       []string `json:"healthTips,omitempty"`
}

func newEligibilityView(e service.Eligibility, tips bool) eligibilityView {
	v := eligibilityView{Eligible: e.Eligible, NextEligibleDate: formatDate(e.NextEligibleDate)}
	if e.LastDonationDate != nil {
		last := formatDate(*e.LastDonationDate)
		days := e.DaysSinceLast
		v.LastDonationDate = &last
		v.DaysSinceLast = &days
	}
	if tips {
		v.HealthTips = service.HealthTips
	}
	return v
}

// Get returns the caller's profile with their eligibility status.
func (h *ProfileHandler) Get(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, s.UserID)
	if err != nil {
		return storeError(err)
	}
	elig, err := h.Eligibility.Check(ctx, s.UserID)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": newUserView(u), "eligibility": newEligibilityView(elig, true)})
}

type profileReq struct {
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	BloodGroup string `json:"blood_group"`
}

// Update overwrites the caller's editable profile fields.
func (h *ProfileHandler) Update(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	upd := model.ProfileUpdate{
		Name:    strings.TrimSpace(req.Name),
		Gender:  strings.TrimSpace(req.Gender),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}
	if upd.Name == "" {
		return apperr.Validation("name required")
	}
	if req.BloodGroup != "" {
		g, err := model.ParseBloodGroup(req.BloodGroup)
		if err != nil {
			return apperr.Validation("invalid blood_group")
		}
		upd.BloodGroup = g
	}

	ctx := c.Request().Context()
	if err := h.Users.UpdateProfile(ctx, s.UserID, upd); err != nil {
		return storeError(err)
	}
	u, err := h.Users.GetByID(ctx, s.UserID)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": newUserView(u)})
}
