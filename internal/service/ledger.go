package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/bloodbank/internal/dbx"
	"github.com/iliyamo/bloodbank/internal/logging"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/queue"
	"github.com/iliyamo/bloodbank/internal/repository"
	"github.com/iliyamo/bloodbank/internal/session"
)

// Ledger owns every operation that changes the inventory totals.  Each
// one runs in a single transaction that locks the group's ledger row
// before touching it, so concurrent donations for the same group cannot
// lose updates.  Events are published after commit and never fail the
// operation.
type Ledger struct {
	db           *sql.DB
	donations    *repository.DonationRepo
	inventory    *repository.InventoryRepo
	requests     *repository.RequestRepo
	transfusions *repository.TransfusionRepo
	pub          Publisher
	log          logging.Logger
	now          func() time.Time
}

// LedgerDeps carries the Ledger collaborators. Only DB is required.
type LedgerDeps struct {
	DB        *sql.DB
	Publisher Publisher        // defaults to NopPublisher
	Log       logging.Logger   // defaults to logging.Discard
	Now       func() time.Time // defaults to time.Now
}

// NewLedger builds a Ledger, filling unset dependencies with defaults.
func NewLedger(d LedgerDeps) *Ledger {
	if d.Publisher == nil {
		d.Publisher = NopPublisher{}
	}
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Ledger{
		db:           d.DB,
		donations:    repository.NewDonationRepo(d.DB),
		inventory:    repository.NewInventoryRepo(d.DB),
		requests:     repository.NewRequestRepo(d.DB),
		transfusions: repository.NewTransfusionRepo(d.DB),
		pub:          d.Publisher,
		log:          d.Log,
		now:          d.Now,
	}
}

// RecordDonation inserts d and, when the unit is available, adds its
// volume to the group's total.  d.ID is set on success.
func (l *Ledger) RecordDonation(ctx context.Context, d *model.Donation, recordedBy uint64) error {
	err := dbx.WithTx(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if d.Status == model.DonationAvailable {
			if _, err := l.inventory.LockTx(ctx, tx, d.BloodGroup); err != nil {
				return err
			}
		}
		if err := l.donations.CreateTx(ctx, tx, d); err != nil {
			return err
		}
		if d.Status != model.DonationAvailable {
			return nil
		}
		return l.inventory.IncrementTx(ctx, tx, d.BloodGroup, uint64(d.QuantityML))
	})
	if err != nil {
		return err
	}

	l.publish(ctx, queue.DonationRecordedQueue, queue.DonationRecordedEvent{
		DonationID: d.ID,
		DonorID:    d.DonorID,
		RecordedBy: recordedBy,
		BloodGroup: d.BloodGroup.String(),
		QuantityML: d.QuantityML,
		Center:     d.Center,
		Status:     string(d.Status),
		DonatedOn:  d.DonatedOn.Format(time.DateOnly),
		RecordedAt: l.now().UTC().Format(time.RFC3339),
	})
	return nil
}

// ExpireDonation marks an available unit expired and removes its volume
// from the ledger.  Units in any other state yield
// repository.ErrInvalidTransition.
//
// Locks are taken ledger row first, then donation row, the same order as
// FulfillRequest.
func (l *Ledger) ExpireDonation(ctx context.Context, id uint64) (model.Donation, error) {
	var out model.Donation
	err := dbx.WithTx(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		peek, err := l.donations.GetTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := l.inventory.LockTx(ctx, tx, peek.BloodGroup); err != nil {
			return err
		}
		d, err := l.donations.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if d.Status != model.DonationAvailable {
			return repository.ErrInvalidTransition
		}
		if err := l.donations.SetStatusTx(ctx, tx, id, model.DonationAvailable, model.DonationExpired); err != nil {
			return err
		}
		if err := l.inventory.DecrementTx(ctx, tx, d.BloodGroup, uint64(d.QuantityML)); err != nil {
			return err
		}
		d.Status = model.DonationExpired
		out = d
		return nil
	})
	return out, err
}

// Fulfillment is the outcome of FulfillRequest.
type Fulfillment struct {
	Request      model.Request
	Transfusions []model.Transfusion
	AllocatedML  uint64
}

// FulfillRequest allocates whole available units of the request's group,
// oldest first, until the requested volume is covered.  It records a
// transfusion per unit, marks the units used, decrements the ledger by
// the allocated volume and marks the request fulfilled.  When the
// available units cannot cover the request nothing changes and
// repository.ErrInsufficientStock is returned.
func (l *Ledger) FulfillRequest(ctx context.Context, id uint64, actor uint64) (Fulfillment, error) {
	var out Fulfillment
	today := Today(l.now)
	err := dbx.WithTx(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		req, err := l.requests.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Status != model.RequestPending {
			return repository.ErrInvalidTransition
		}
		if _, err := l.inventory.LockTx(ctx, tx, req.BloodGroup); err != nil {
			return err
		}
		units, err := l.donations.AvailableForGroupTx(ctx, tx, req.BloodGroup)
		if err != nil {
			return err
		}
		picked, total, ok := Allocate(units, uint64(req.RequestedML))
		if !ok {
			return repository.ErrInsufficientStock
		}

		items := make([]model.Transfusion, 0, len(picked))
		for _, u := range picked {
			if err := l.donations.SetStatusTx(ctx, tx, u.ID, model.DonationAvailable, model.DonationUsed); err != nil {
				return err
			}
			items = append(items, model.Transfusion{DonationID: u.ID, RequestID: req.ID, QuantityML: u.QuantityML, TransfusedOn: today})
		}
		if err := l.transfusions.CreateBulkTx(ctx, tx, items); err != nil {
			return err
		}
		if err := l.inventory.DecrementTx(ctx, tx, req.BloodGroup, total); err != nil {
			return err
		}
		if err := l.requests.SetStatusTx(ctx, tx, req.ID, model.RequestPending, model.RequestFulfilled); err != nil {
			return err
		}
		req.Status = model.RequestFulfilled
		out = Fulfillment{Request: req, Transfusions: items, AllocatedML: total}
		return nil
	})
	if err != nil {
		return Fulfillment{}, err
	}

	ids := make([]uint64, len(out.Transfusions))
	for i, t := range out.Transfusions {
		ids[i] = t.DonationID
	}
	l.publish(ctx, queue.RequestFulfilledQueue, queue.RequestFulfilledEvent{
		RequestID:   out.Request.ID,
		BloodGroup:  out.Request.BloodGroup.String(),
		RequestedML: out.Request.RequestedML,
		AllocatedML: out.AllocatedML,
		DonationIDs: ids,
		Hospital:    out.Request.Hospital,
		FulfilledBy: actor,
		FulfilledAt: l.now().UTC().Format(time.RFC3339),
	})
	return out, nil
}

// ErrNotOwner is returned when a non-staff user cancels someone else's request.
var ErrNotOwner = errors.New("request belongs to another user")

// CancelRequest cancels a pending request.  Only its requester or staff
// may cancel it.  The ledger is not touched.
func (l *Ledger) CancelRequest(ctx context.Context, id uint64, actor session.Claims) (model.Request, error) {
	req, err := l.requests.GetByID(ctx, id)
	if err != nil {
		return model.Request{}, err
	}
	if req.RequestedBy != actor.UserID && !actor.Role.IsStaff() {
		return model.Request{}, ErrNotOwner
	}
	if err := l.requests.SetStatusTx(ctx, l.db, id, model.RequestPending, model.RequestCancelled); err != nil {
		return model.Request{}, err
	}
	req.Status = model.RequestCancelled
	return req, nil
}

// Allocate picks units in order until their volume covers need.  It
// reports false when the units run out first.
func Allocate(units []model.Donation, need uint64) ([]model.Donation, uint64, bool) {
	var total uint64
	for i, u := range units {
		total += uint64(u.QuantityML)
		if total >= need {
			return units[:i+1], total, true
		}
	}
	return nil, 0, need == 0
}

func (l *Ledger) publish(ctx context.Context, key string, ev any) {
	// detached: the caller's context may be cancelled once we return
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := l.pub.Publish(pctx, key, ev); err != nil {
		l.log.Warn(ctx, "event not published", "queue", key, "err", err)
	}
}
