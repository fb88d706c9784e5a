package session

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bloodbank/internal/model"
)

func TestContextRoundTrip(t *testing.T) {
	s := &Session{Claims: Claims{UserID: 7, Email: "a@b.c", Role: model.RoleStaff}}
	ctx := WithContext(context.Background(), s)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, uint64(7), got.UserID)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}

func TestAttachAndFrom(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest("GET", "/", nil), httptest.NewRecorder())
	require.Nil(t, From(c))

	s := &Session{Claims: Claims{UserID: 3, Role: model.RoleUser}}
	Attach(c, s)

	require.Same(t, s, From(c))
	fromReq, ok := FromContext(c.Request().Context())
	require.True(t, ok)
	require.Same(t, s, fromReq)
}
