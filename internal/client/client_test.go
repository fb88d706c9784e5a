package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(srv.URL+"/", nil)
	c.Now = func() time.Time { return testNow }
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginStoresSessionAndAuthenticatesLaterCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ada@example.com", body["email"])
		writeJSON(w, http.StatusOK, map[string]any{
			"token":   "tok-1",
			"expires": testNow.Add(time.Hour),
			"user":    map[string]any{"id": 3, "email": "ada@example.com", "role": "User", "blood_group": "A+"},
		})
	})
	mux.HandleFunc("/api/inventory", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"inventory": []map[string]any{{"blood_group": "A+", "total_ml": 900}}})
	})
	c := newTestClient(t, mux)

	s, err := c.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, uint64(3), s.User.ID)

	inv, err := c.Inventory(context.Background())
	require.NoError(t, err)
	require.Equal(t, []InventoryEntry{{BloodGroup: "A+", TotalML: 900}}, inv)
}

func TestAuthenticatedCallWithoutSession(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.Eligibility(context.Background())
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestExpiredSessionIsCleared(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	require.NoError(t, c.Store.Save(&Session{Token: "old", Expires: testNow.Add(-time.Minute)}))

	_, err := c.Profile(context.Background())
	require.ErrorIs(t, err, ErrNotLoggedIn)

	s, err := c.Store.Load()
	require.NoError(t, err)
	require.Nil(t, s)
}

func TestUnauthorizedResponseDropsSession(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	}))
	require.NoError(t, c.Store.Save(&Session{Token: "tok", Expires: testNow.Add(time.Hour)}))

	_, err := c.Inventory(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "token expired", apiErr.Message)

	_, err = c.Current()
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestAPIErrorFromConflict(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "email already exists"})
	}))

	_, err := c.Register(context.Background(), RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "x"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "email already exists", apiErr.Message)

	_, err = c.Current()
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestAPIErrorWithPlainBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db unavailable", http.StatusServiceUnavailable)
	}))
	_, err := c.Login(context.Background(), "a@b.c", "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "db unavailable", apiErr.Message)
}

func TestDonationsQueryString(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "2", q.Get("page"))
		require.Equal(t, "5", q.Get("pageSize"))
		require.Equal(t, "2024", q.Get("year"))
		require.Equal(t, "City Hall", q.Get("center"))
		require.Empty(t, q.Get("status"))
		writeJSON(w, http.StatusOK, map[string]any{
			"donations":  []map[string]any{{"id": 1, "donated_on": "2024-03-01", "status": "available"}},
			"pagination": map[string]int{"page": 2, "pageSize": 5, "total": 6, "totalPages": 2},
		})
	}))
	require.NoError(t, c.Store.Save(&Session{Token: "tok"}))

	page, err := c.Donations(context.Background(), DonationQuery{Page: 2, PageSize: 5, Year: 2024, Center: "City Hall"})
	require.NoError(t, err)
	require.Len(t, page.Donations, 1)
	require.Equal(t, Pagination{Page: 2, PageSize: 5, Total: 6, TotalPages: 2}, page.Pagination)
}

func TestLogout(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	require.NoError(t, c.Store.Save(&Session{Token: "tok"}))
	require.NoError(t, c.Logout())
	_, err := c.Current()
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestFileStore(t *testing.T) {
	fs := FileStore{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	s, err := fs.Load()
	require.NoError(t, err)
	require.Nil(t, s)

	in := &Session{Token: "tok", Expires: testNow, User: User{ID: 9, Role: "Staff"}}
	require.NoError(t, fs.Save(in))

	out, err := fs.Load()
	require.NoError(t, err)
	require.Equal(t, in.Token, out.Token)
	require.True(t, in.Expires.Equal(out.Expires))
	require.Equal(t, in.User, out.User)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	s, err = fs.Load()
	require.NoError(t, err)
	require.Nil(t, s)
}
