package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/session"
)

var donor = session.Claims{UserID: 42, Email: "donor@example.com", Role: model.RoleUser, BloodGroup: model.GroupONeg}

func TestIssueAndParse_RoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := IssueToken("s3cret", donor, time.Hour, time.Now())
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

	got, err := ParseToken("s3cret", tok.Token)
	require.NoError(t, err)
	require.Equal(t, donor, *got)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	tok, err := IssueToken("s3cret", donor, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = ParseToken("s3cret", tok.Token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := IssueToken("right", donor, time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseToken("wrong", tok.Token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("k", "not.a.jwt")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParse_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	claims := jwt.MapClaims{"sub": "42", "role": "Admin", "exp": time.Now().Add(time.Hour).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken("k", raw)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParse_UnknownRoleIsInvalid(t *testing.T) {
	t.Parallel()

	claims := jwt.MapClaims{"sub": "42", "role": "Root", "exp": time.Now().Add(time.Hour).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = ParseToken("k", raw)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParse_MissingExpiryIsInvalid(t *testing.T) {
	t.Parallel()

	claims := jwt.MapClaims{"sub": "42", "role": "User"}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = ParseToken("k", raw)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssue_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := IssueToken("", donor, time.Hour, time.Now())
	require.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	raw, err := BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", raw)

	for _, h := range []string{"", "abc.def.ghi", "Basic dXNlcg==", "Bearer ", "bearer abc"} {
		_, err := BearerToken(h)
		require.ErrorIs(t, err, ErrMissingBearer, h)
	}
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Passw0rd!", 4)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$2"))
	require.True(t, VerifyPassword(hash, "Passw0rd!"))
	require.False(t, VerifyPassword(hash, "wrong"))

	_, err = HashPassword(strings.Repeat("x", 73), 4)
	require.ErrorIs(t, err, ErrPasswordTooLong)
}
