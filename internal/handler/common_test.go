package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bloodbank/internal/apperr"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/repository"
	"github.com/iliyamo/bloodbank/internal/service"
	"github.com/iliyamo/bloodbank/internal/session"
)

func ctxWithQuery(q string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/?"+q, nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestParsePage(t *testing.T) {
	p, err := parsePage(ctxWithQuery(""))
	require.NoError(t, err)
	require.Equal(t, model.Page{Number: 1, Size: 10}, p)

	p, err = parsePage(ctxWithQuery("page=4&pageSize=25"))
	require.NoError(t, err)
	require.Equal(t, model.Page{Number: 4, Size: 25}, p)

	for _, q := range []string{"page=0", "page=-1", "page=a", "pageSize=0", "pageSize=11", "pageSize=100"} {
		_, err := parsePage(ctxWithQuery(q))
		require.True(t, apperr.Is(err, apperr.KindValidation), q)
	}
}

func TestRegistrationRole(t *testing.T) {
	require.Equal(t, model.RoleUser, registrationRole(""))
	require.Equal(t, model.RoleUser, registrationRole("User"))
	require.Equal(t, model.RoleStaff, registrationRole("Staff"))
	require.Equal(t, model.RoleUser, registrationRole("Admin"))
	require.Equal(t, model.RoleUser, registrationRole("root"))
}

func TestStoreError(t *testing.T) {
	cases := []struct {
		err  error
		kind apperr.Kind
	}{
		{repository.ErrNotFound, apperr.KindNotFound},
		{fmt.Errorf("get: %w", repository.ErrEmailExists), apperr.KindConflict},
		{repository.ErrInsufficientStock, apperr.KindConflict},
		{repository.ErrInvalidTransition, apperr.KindConflict},
		{repository.ErrConflict, apperr.KindConflict},
		{repository.ErrForbidden, apperr.KindForbidden},
		{errors.New("driver: bad connection"), apperr.KindInternal},
	}
	for _, tc := range cases {
		require.True(t, apperr.Is(storeError(tc.err), tc.kind), tc.err.Error())
	}

	ae, ok := apperr.As(storeError(errors.New("secret dsn leaked")))
	require.True(t, ok)
	require.Equal(t, "internal server error", ae.Message)
}

func TestTargetDonor(t *testing.T) {
	user := &session.Session{Claims: session.Claims{UserID: 7, Role: model.RoleUser}}
	staff := &session.Session{Claims: session.Claims{UserID: 2, Role: model.RoleStaff}}

	id, err := targetDonor(user, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(7), id)

	id, err = targetDonor(user, 7)
	require.NoError(t, err)
	require.Equal(t, uint64(7), id)

	_, err = targetDonor(user, 8)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	id, err = targetDonor(staff, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(8), id)
}

func TestParseDate(t *testing.T) {
	def := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	d, err := parseDate("", def, "date")
	require.NoError(t, err)
	require.Equal(t, def, d)

	d, err = parseDate(" 2024-02-29 ", def, "date")
	require.NoError(t, err)
	require.Equal(t, "2024-02-29", formatDate(d))

	_, err = parseDate("29/02/2024", def, "date")
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSupportType(t *testing.T) {
	typ, ok := supportType(" medical ")
	require.True(t, ok)
	require.Equal(t, "Medical", typ)

	typ, ok = supportType("TECHNICAL")
	require.True(t, ok)
	require.Equal(t, "Technical", typ)

	_, ok = supportType("billing")
	require.False(t, ok)
}

func TestEligibilityView(t *testing.T) {
	v := newEligibilityView(service.Eligibility{Eligible: true, NextEligibleDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}, false)
	require.Nil(t, v.LastDonationDate)
	require.Nil(t, v.DaysSinceLast)
	require.Empty(t, v.HealthTips)

	last := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	v = newEligibilityView(service.Evaluate(&last, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)), true)
	require.False(t, v.Eligible)
	require.Equal(t, "2025-06-26", v.NextEligibleDate)
	require.Equal(t, "2025-05-01", *v.LastDonationDate)
	require.Equal(t, 31, *v.DaysSinceLast)
	require.Equal(t, service.HealthTips, v.HealthTips)
}

func TestFAQs(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/faqs", nil), rec)
	require.NoError(t, FAQs(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "56 days")
}
