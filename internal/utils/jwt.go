package utils // package utils provides token issuing/verification and password hashing

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/session"
)

// DefaultTokenTTL is the session lifetime.  There is no refresh flow;
// an expired token simply forces a new login.
const DefaultTokenTTL = time.Hour

var (
	ErrMissingBearer = errors.New("missing bearer token")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
)

// tokenClaims is the JWT payload.  The subject carries the user ID as a
// decimal string; email, role and blood group ride alongside it.
type tokenClaims struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	BloodGroup string `json:"blood_group,omitempty"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token with its expiry.
type IssuedToken struct {
	Token string
	Exp   time.Time
}

// IssueToken signs an HS256 token for the given claims that expires ttl
// after now.
func IssueToken(secret string, c session.Claims, ttl time.Duration, now time.Time) (IssuedToken, error) {
	if secret == "" {
		return IssuedToken{}, errors.New("empty signing secret")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now = now.UTC()
	exp := now.Add(ttl)
	tc := tokenClaims{
		Email:      c.Email,
		Role:       c.Role.String(),
		BloodGroup: c.BloodGroup.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(c.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString([]byte(secret))
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies raw and returns its claims.  Expired tokens yield
// ErrTokenExpired; anything else that fails verification (bad signature,
// malformed input, wrong algorithm, unknown role) yields ErrTokenInvalid.
func ParseToken(secret, raw string) (*session.Claims, error) {
	var tc tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &tc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}

	id, err := strconv.ParseUint(tc.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrTokenInvalid
	}
	role, err := model.ParseRole(tc.Role)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	var group model.BloodGroup
	if tc.BloodGroup != "" {
		if group, err = model.ParseBloodGroup(tc.BloodGroup); err != nil {
			return nil, ErrTokenInvalid
		}
	}
	return &session.Claims{UserID: id, Email: tc.Email, Role: role, BloodGroup: group}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", ErrMissingBearer
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return "", ErrMissingBearer
	}
	return raw, nil
}
