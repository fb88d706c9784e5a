package service

import (
	"context"
	"time"
)

// DeferralDays is the minimum number of whole days between two
// donations.  Every donation counts the same; double red cell donations
// are not tracked separately.
const DeferralDays = 56

// Eligibility is the result of evaluating a donor's last donation.
type Eligibility struct {
	Eligible         bool
	NextEligibleDate time.Time  // calendar date, UTC
	LastDonationDate *time.Time // nil when the donor never donated
	DaysSinceLast    int        // zero when LastDonationDate is nil
}

// HealthTips are shown next to the eligibility status on the profile.
var HealthTips = []string{
	"Eat iron-rich foods such as spinach, beans and red meat in the weeks before donating.",
	"Drink an extra 500 ml of water before and after your donation.",
	"Get a good night's sleep and have a healthy meal before you donate.",
	"Avoid heavy lifting or strenuous exercise for the rest of the day after donating.",
}

// Evaluate applies the deferral rule.  Dates are compared as UTC
// calendar days; the boundary is inclusive, so a donor becomes eligible
// on exactly the DeferralDays-th day.
func Evaluate(last *time.Time, now time.Time) Eligibility {
	today := calendarDay(now)
	if last == nil {
		return Eligibility{Eligible: true, NextEligibleDate: today}
	}
	lastDay := calendarDay(*last)
	days := int(today.Sub(lastDay).Hours() / 24)
	return Eligibility{
		Eligible:         days >= DeferralDays,
		NextEligibleDate: lastDay.AddDate(0, 0, DeferralDays),
		LastDonationDate: &lastDay,
		DaysSinceLast:    days,
	}
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar day for the given clock.
func Today(now func() time.Time) time.Time { return calendarDay(now()) }

// LastDonationFinder is satisfied by repository.DonationRepo.
type LastDonationFinder interface {
	LatestForDonor(ctx context.Context, donorID uint64) (*time.Time, error)
}

// Evaluator looks up a donor's most recent donation and evaluates it.
type Evaluator struct {
	donations LastDonationFinder
	now       func() time.Time
}

// NewEvaluator builds an Evaluator.  A nil clock means time.Now.
func NewEvaluator(donations LastDonationFinder, now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{donations: donations, now: now}
}

// Check evaluates donorID as of the evaluator's clock.  It never writes.
func (e *Evaluator) Check(ctx context.Context, donorID uint64) (Eligibility, error) {
	last, err := e.donations.LatestForDonor(ctx, donorID)
	if err != nil {
		return Eligibility{}, err
	}
	return Evaluate(last, e.now()), nil
}

// Now exposes the evaluator's clock so callers share one notion of today.
func (e *Evaluator) Now() time.Time { return e.now() }
