package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", h)
	require.True(t, VerifyPassword(h, "s3cret"))
	require.False(t, VerifyPassword(h, "S3cret"))
	require.False(t, VerifyPassword("not-a-hash", "s3cret"))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	require.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = HashPassword(strings.Repeat("x", 72), bcrypt.MinCost)
	require.NoError(t, err)
}

func TestHashPassword_CostOutOfRange(t *testing.T) {
	h, err := HashPassword("pw", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	require.Equal(t, bcrypt.DefaultCost, cost)
}
