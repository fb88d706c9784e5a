package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/apperr"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/repository"
	"github.com/iliyamo/bloodbank/internal/service"
)

// activityLimit caps the recent activity feed.
const activityLimit = 10

// DashboardHandler serves the donor dashboard widgets.
type DashboardHandler struct {
	Users        *repository.UserRepo // profile lookups; token claims may be stale
	Eligibility  *service.Evaluator   // deferral rule with the shared clock
	Appointments *repository.AppointmentRepo
	Activity     *repository.ActivityRepo
}

// NewDashboardHandler wires the dashboard endpoints to their stores.
func NewDashboardHandler(u *repository.UserRepo, ev *service.Evaluator, a *repository.AppointmentRepo, act *repository.ActivityRepo) *DashboardHandler {
	return &DashboardHandler{Users: u, Eligibility: ev, Appointments: a, Activity: act}
}

// EligibilityStatus reports whether the caller may donate today.
func (h *DashboardHandler) EligibilityStatus(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	e, err := h.Eligibility.Check(c.Request().Context(), s.UserID)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, newEligibilityView(e, false))
}

type appointmentView struct {
	ID       uint64 `json:"id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
}

func newAppointmentView(a *model.Appointment) *appointmentView {
	if a == nil {
		return nil
	}
	return &appointmentView{ID: a.ID, Date: formatDate(a.ScheduledOn), Time: a.Time, Location: a.Location}
}

// Upcoming returns the caller's next appointment, or null.
func (h *DashboardHandler) Upcoming(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	a, err := h.Appointments.NextUpcoming(c.Request().Context(), s.UserID, service.Today(h.Eligibility.Now))
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"appointment": newAppointmentView(a)})
}

type appointmentReq struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
}

// Book schedules a donation.  The date may not be in the past nor
// before the caller's next eligible date.
func (h *DashboardHandler) Book(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	var req appointmentReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	if strings.TrimSpace(req.Date) == "" {
		return apperr.Validation("date required")
	}
	date, err := parseDate(req.Date, time.Time{}, "date")
	if err != nil {
		return err
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		return apperr.Validation("time must be HH:MM")
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return apperr.Validation("location required")
	}

	ctx := c.Request().Context()
	e, err := h.Eligibility.Check(ctx, s.UserID)
	if err != nil {
		return apperr.Internal(err)
	}
	if date.Before(service.Today(h.Eligibility.Now)) {
		return apperr.Validation("date cannot be in the past")
	}
	if date.Before(e.NextEligibleDate) {
		return apperr.Conflict("not eligible to donate before " + formatDate(e.NextEligibleDate))
	}

	a := &model.Appointment{UserID: s.UserID, ScheduledOn: date, Time: req.Time, Location: location}
	if err := h.Appointments.Create(ctx, a); err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"appointment": newAppointmentView(a)})
}

type reminderView struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Date    string `json:"date"`
}

// Reminders derives the outstanding reminders from eligibility, the next
// appointment and the caller's stored profile.
func (h *DashboardHandler) Reminders(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	today := service.Today(h.Eligibility.Now)

	e, err := h.Eligibility.Check(ctx, s.UserID)
	if err != nil {
		return apperr.Internal(err)
	}
	a, err := h.Appointments.NextUpcoming(ctx, s.UserID, today)
	if err != nil {
		return apperr.Internal(err)
	}
	u, err := h.Users.GetByID(ctx, s.UserID)
	if err != nil {
		return storeError(err)
	}

	out := []reminderView{}
	switch {
	case a != nil:
		out = append(out, reminderView{
			ID:      fmt.Sprintf("appointment-%d", a.ID),
			Message: fmt.Sprintf("Donation appointment at %s, %s.", a.Location, a.Time),
			Date:    formatDate(a.ScheduledOn),
		})
	case e.Eligible:
		out = append(out, reminderView{ID: "eligible", Message: "You are eligible to donate. Book an appointment.", Date: formatDate(today)})
	default:
		out = append(out, reminderView{ID: "next-eligible", Message: "You can donate again from " + formatDate(e.NextEligibleDate) + ".", Date: formatDate(e.NextEligibleDate)})
	}
	if u.BloodGroup == "" {
		out = append(out, reminderView{ID: "profile-blood-group", Message: "Add your blood group to your profile.", Date: formatDate(today)})
	}
	return c.JSON(http.StatusOK, echo.Map{"reminders": out})
}

// RecentActivity returns the caller's latest donations, requests and
// support queries, newest first.
func (h *DashboardHandler) RecentActivity(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	items, err := h.Activity.Recent(c.Request().Context(), s.UserID, activityLimit)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"activity": items})
}
