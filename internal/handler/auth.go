package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/apperr"
	"github.com/iliyamo/bloodbank/internal/config"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/repository"
	"github.com/iliyamo/bloodbank/internal/session"
	"github.com/iliyamo/bloodbank/internal/utils"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Now   func() time.Time
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Now: time.Now}
}

// ----- DTOs -----

type registerReq struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"` // User | Staff; anything else registers a User
	Gender     string `json:"gender"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	BloodGroup string `json:"blood_group"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
	User    userView  `json:"user"`
}

// registrationRole picks the stored role.  Admin can only be granted by
// another admin, so it falls back to User like any unknown value.
func registrationRole(s string) model.Role {
	r, err := model.ParseRole(s)
	if err != nil || r == model.RoleAdmin {
		return model.RoleUser
	}
	return r
}

// Register creates an account and signs the caller in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperr.Validation("name, email and password required")
	}
	if !strings.Contains(req.Email, "@") {
		return apperr.Validation("invalid email")
	}
	var group model.BloodGroup
	if req.BloodGroup != "" {
		g, err := model.ParseBloodGroup(req.BloodGroup)
		if err != nil {
			return apperr.Validation("invalid blood_group")
		}
		group = g
	}

	ctx := c.Request().Context()
	in := repository.NewUser{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       registrationRole(req.Role),
		Gender:     strings.TrimSpace(req.Gender),
		Phone:      strings.TrimSpace(req.Phone),
		Address:    strings.TrimSpace(req.Address),
		BloodGroup: group,
	}
	uid, err := h.Users.Create(ctx, in, h.Cfg.BcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return apperr.Validation("password too long")
	}
	if err != nil {
		return storeError(err)
	}

	u := model.User{
		ID: uid, Name: in.Name, Email: in.Email, Role: in.Role,
		Gender: in.Gender, Phone: in.Phone, Address: in.Address, BloodGroup: group,
	}
	return h.respond(c, http.StatusCreated, u)
}

// Login verifies credentials and returns a fresh token.  Unknown email
// and wrong password are indistinguishable to the client.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return apperr.Validation("email and password required")
	}

	u, err := h.Users.GetByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return storeError(err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return apperr.Unauthorized("invalid credentials")
	}
	return h.respond(c, http.StatusOK, u)
}

func (h *AuthHandler) respond(c echo.Context, status int, u model.User) error {
	tok, err := utils.IssueToken(h.Cfg.JWTSecret, session.Claims{
		UserID:     u.ID,
		Email:      u.Email,
		Role:       u.Role,
		BloodGroup: u.BloodGroup,
	}, h.Cfg.TokenTTL, h.Now())
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(status, authResp{Token: tok.Token, Expires: tok.Exp, User: newUserView(u)})
}
