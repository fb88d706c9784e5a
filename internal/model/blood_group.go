package model

import (
	"errors"
	"sort"
	"strings"
)

// BloodGroup is one of the eight ABO/Rh categories used as the inventory
// partition key.  Negative groups are spelled with an en dash, matching
// the seeded reference rows; ParseBloodGroup also accepts an ASCII hyphen.
type BloodGroup string

const (
	GroupAPos  BloodGroup = "A+"
	GroupANeg  BloodGroup = "A–"
	GroupBPos  BloodGroup = "B+"
	GroupBNeg  BloodGroup = "B–"
	GroupABPos BloodGroup = "AB+"
	GroupABNeg BloodGroup = "AB–"
	GroupOPos  BloodGroup = "O+"
	GroupONeg  BloodGroup = "O–"
)

// ErrUnknownBloodGroup is returned by ParseBloodGroup for invalid input.
var ErrUnknownBloodGroup = errors.New("unknown blood group")

// BloodGroups is the fixed reference list in seeding order.
var BloodGroups = []BloodGroup{GroupAPos, GroupANeg, GroupBPos, GroupBNeg, GroupABPos, GroupABNeg, GroupOPos, GroupONeg}

// ParseBloodGroup normalises user input ("ab-", "O−", " A+ ") to a BloodGroup.
func ParseBloodGroup(s string) (BloodGroup, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	// hyphen-minus and the unicode minus sign both map to the en dash
	s = strings.NewReplacer("-", "–", "−", "–").Replace(s)
	for _, g := range BloodGroups {
		if string(g) == s {
			return g, nil
		}
	}
	return "", ErrUnknownBloodGroup
}

// SortedBloodGroups returns the groups ordered by name.
func SortedBloodGroups() []BloodGroup {
	out := make([]BloodGroup, len(BloodGroups))
	copy(out, BloodGroups)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (g BloodGroup) String() string { return string(g) }
