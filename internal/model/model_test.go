package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBloodGroup(t *testing.T) {
	cases := map[string]BloodGroup{
		"A+":   GroupAPos,
		"a-":   GroupANeg,
		" ab+": GroupABPos,
		"AB−":  GroupABNeg,
		"O–":   GroupONeg,
		"o+":   GroupOPos,
		"B-":   GroupBNeg,
	}
	for in, want := range cases {
		got, err := ParseBloodGroup(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "C+", "A", "AB", "O++"} {
		_, err := ParseBloodGroup(bad)
		require.ErrorIs(t, err, ErrUnknownBloodGroup, bad)
	}
}

func TestSortedBloodGroups(t *testing.T) {
	got := SortedBloodGroups()
	require.Len(t, got, 8)
	for i := 1; i < len(got); i++ {
		require.Less(t, string(got[i-1]), string(got[i]))
	}
	// the reference slice is left in seed order
	require.Equal(t, GroupAPos, BloodGroups[0])
	require.Equal(t, GroupANeg, BloodGroups[1])
}

func TestParseRole(t *testing.T) {
	for _, in := range []string{"user", "USER", " User "} {
		r, err := ParseRole(in)
		require.NoError(t, err)
		require.Equal(t, RoleUser, r)
	}
	r, err := ParseRole("admin")
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	require.ErrorIs(t, err, ErrUnknownRole)

	require.False(t, Role("root").Valid())
	require.True(t, RoleStaff.IsStaff())
	require.True(t, RoleAdmin.IsStaff())
	require.False(t, RoleUser.IsStaff())
}

func TestParseStatuses(t *testing.T) {
	s, err := ParseDonationStatus("expired")
	require.NoError(t, err)
	require.Equal(t, DonationExpired, s)
	_, err = ParseDonationStatus("Available")
	require.ErrorIs(t, err, ErrUnknownDonationStatus)

	rs, err := ParseRequestStatus("pending")
	require.NoError(t, err)
	require.Equal(t, RequestPending, rs)
	_, err = ParseRequestStatus("done")
	require.ErrorIs(t, err, ErrUnknownRequestStatus)
}

func TestPage(t *testing.T) {
	p := Page{Number: 3, Size: 10}
	require.Equal(t, 20, p.Offset())
	require.Equal(t, 3, p.TotalPages(25))
	require.Equal(t, 0, p.TotalPages(0))
	require.Equal(t, 1, Page{Number: 1, Size: 25}.TotalPages(25))
	require.Equal(t, 2, Page{Number: 1, Size: 25}.TotalPages(26))
	require.Equal(t, 0, Page{Number: 1}.TotalPages(5))
}
