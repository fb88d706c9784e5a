package model

import (
	"errors"
	"time"
)

// DonationStatus is the lifecycle state of a donated unit.
type DonationStatus string

const (
	DonationAvailable DonationStatus = "available"
	DonationUsed      DonationStatus = "used"
	DonationExpired   DonationStatus = "expired"
)

var ErrUnknownDonationStatus = errors.New("unknown donation status")

// ParseDonationStatus validates a status string.
func ParseDonationStatus(s string) (DonationStatus, error) {
	switch DonationStatus(s) {
	case DonationAvailable, DonationUsed, DonationExpired:
		return DonationStatus(s), nil
	}
	return "", ErrUnknownDonationStatus
}

// Donation records a single unit given by a donor.  The blood group is
// copied from the donor at recording time so that ledger arithmetic does
// not depend on later profile edits.
//
// Fields:
//  ID          – primary key identifier.
//  DonorID     – user who donated.
//  BloodGroup  – group of the unit.
//  DonatedOn   – calendar date of the donation (UTC midnight).
//  QuantityML  – positive volume in millilitres.
//  Center      – donation centre name.
//  Status      – available, used or expired.
//  CreatedAt   – creation timestamp.
type Donation struct {
	ID         uint64
	DonorID    uint64
	BloodGroup BloodGroup
	DonatedOn  time.Time
	QuantityML uint32
	Center     string
	Status     DonationStatus
	CreatedAt  time.Time
}

// DonationFilter holds the optional, conjunctive history filters.  Zero
// values mean "no constraint".
type DonationFilter struct {
	Year   int
	Center string
	Status DonationStatus
}

// Page is an offset-based page request.
type Page struct {
	Number int // 1-based
	Size   int
}

// Offset returns (Number-1)*Size.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages returns ceil(total/Size).
func (p Page) TotalPages(total int) int {
	if p.Size <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}
