// Package client is a small Go client for the blood bank API.  It keeps
// the signed-in session in a Store and attaches the bearer token to
// every authenticated call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotLoggedIn is returned by authenticated calls without a usable
// session.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response.  Message is the server's `error` field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Store   Store
	Now     func() time.Time
}

// New returns a client with a 10s HTTP timeout.  A nil store keeps the
// session in memory.
func New(baseURL string, store Store) *Client {
	if store == nil {
		store = &MemoryStore{}
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Store:   store,
		Now:     time.Now,
	}
}

type authResponse struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
	User    User      `json:"user"`
}

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/api/register", "", in, &out); err != nil {
		return nil, err
	}
	return c.remember(out)
}

// Login signs in and stores the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", "", body, &out); err != nil {
		return nil, err
	}
	return c.remember(out)
}

func (c *Client) remember(r authResponse) (*Session, error) {
	s := &Session{Token: r.Token, Expires: r.Expires, User: r.User}
	if err := c.Store.Save(s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// Logout forgets the stored session.  Tokens are stateless, so there is
// nothing to revoke on the server.
func (c *Client) Logout() error { return c.Store.Clear() }

// Current returns the stored session, or ErrNotLoggedIn when there is
// none or it has expired.  An expired session is cleared.
func (c *Client) Current() (*Session, error) {
	s, err := c.Store.Load()
	if err != nil {
		return nil, err
	}
	if s == nil || s.Token == "" {
		return nil, ErrNotLoggedIn
	}
	if s.Expired(c.Now()) {
		_ = c.Store.Clear()
		return nil, ErrNotLoggedIn
	}
	return s, nil
}

type Profile struct {
	User        User        `json:"user"`
	Eligibility Eligibility `json:"eligibility"`
}

func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.authed(ctx, http.MethodGet, "/api/profile", nil, &out)
	return out, err
}

func (c *Client) Inventory(ctx context.Context) ([]InventoryEntry, error) {
	var out struct {
		Inventory []InventoryEntry `json:"inventory"`
	}
	err := c.authed(ctx, http.MethodGet, "/api/inventory", nil, &out)
	return out.Inventory, err
}

func (c *Client) Donations(ctx context.Context, q DonationQuery) (DonationPage, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Year > 0 {
		v.Set("year", strconv.Itoa(q.Year))
	}
	if q.Center != "" {
		v.Set("center", q.Center)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	path := "/api/donations"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out DonationPage
	err := c.authed(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Donate(ctx context.Context, in NewDonation) (Donation, error) {
	var out struct {
		Donation Donation `json:"donation"`
	}
	err := c.authed(ctx, http.MethodPost, "/api/donations", in, &out)
	return out.Donation, err
}

func (c *Client) Eligibility(ctx context.Context) (Eligibility, error) {
	var out Eligibility
	err := c.authed(ctx, http.MethodGet, "/api/eligibility", nil, &out)
	return out, err
}

func (c *Client) RequestBlood(ctx context.Context, in NewRequest) (Request, error) {
	var out struct {
		Request Request `json:"request"`
	}
	err := c.authed(ctx, http.MethodPost, "/api/request", in, &out)
	return out.Request, err
}

// authed performs a call with the stored token.  A 401 from the server
// means the token is no longer accepted, so the session is dropped.
func (c *Client) authed(ctx context.Context, method, path string, body, out any) error {
	s, err := c.Current()
	if err != nil {
		return err
	}
	err = c.do(ctx, method, path, s.Token, body, out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		_ = c.Store.Clear()
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
