package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/queue"
	"github.com/iliyamo/bloodbank/internal/repository"
	"github.com/iliyamo/bloodbank/internal/session"
)

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, ev any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, ev)
	return p.err
}

var fixedNow = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func newLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock, *recordingPublisher) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	pub := &recordingPublisher{}
	return NewLedger(LedgerDeps{DB: db, Publisher: pub, Now: func() time.Time { return fixedNow }}), mock, pub
}

func expectLock(mock sqlmock.Sqlmock, group string, total int) {
	mock.ExpectExec(`INSERT IGNORE INTO inventory`).WithArgs(group).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT i.total_ml FROM inventory i .* FOR UPDATE`).
		WithArgs(group).
		WillReturnRows(sqlmock.NewRows([]string{"total_ml"}).AddRow(total))
}

func TestRecordDonation_AvailableIncrementsLedger(t *testing.T) {
	l, mock, pub := newLedger(t)
	donated := time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	expectLock(mock, "A+", 0)
	mock.ExpectExec(`INSERT INTO donation`).
		WithArgs(uint64(2), "A+", donated, uint32(450), "City", "available").
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectExec(`SET i.total_ml = i.total_ml \+ \?`).
		WithArgs(uint64(450), "A+").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d := &model.Donation{DonorID: 2, BloodGroup: model.GroupAPos, DonatedOn: donated, QuantityML: 450, Center: "City", Status: model.DonationAvailable}
	require.NoError(t, l.RecordDonation(context.Background(), d, 2))
	require.Equal(t, uint64(31), d.ID)

	require.Equal(t, []string{queue.DonationRecordedQueue}, pub.keys)
	ev := pub.events[0].(queue.DonationRecordedEvent)
	require.Equal(t, uint64(31), ev.DonationID)
	require.Equal(t, "2025-03-30", ev.DonatedOn)
}

func TestRecordDonation_ExpiredSkipsLedger(t *testing.T) {
	l, mock, _ := newLedger(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO donation`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	d := &model.Donation{DonorID: 2, BloodGroup: model.GroupAPos, DonatedOn: fixedNow, QuantityML: 450, Center: "City", Status: model.DonationExpired}
	require.NoError(t, l.RecordDonation(context.Background(), d, 2))
}

func TestRecordDonation_RollsBackWhenLedgerUpdateFails(t *testing.T) {
	l, mock, pub := newLedger(t)

	mock.ExpectBegin()
	expectLock(mock, "B–", 100)
	mock.ExpectExec(`INSERT INTO donation`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`SET i.total_ml = i.total_ml \+ \?`).WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	d := &model.Donation{DonorID: 2, BloodGroup: model.GroupBNeg, DonatedOn: fixedNow, QuantityML: 450, Center: "City", Status: model.DonationAvailable}
	err := l.RecordDonation(context.Background(), d, 2)
	require.Error(t, err)
	require.Empty(t, pub.keys)
}

func TestRecordDonation_PublishFailureIgnored(t *testing.T) {
	l, mock, pub := newLedger(t)
	pub.err = errors.New("broker down")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO donation`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	d := &model.Donation{DonorID: 2, BloodGroup: model.GroupOPos, DonatedOn: fixedNow, QuantityML: 450, Center: "City", Status: model.DonationUsed}
	require.NoError(t, l.RecordDonation(context.Background(), d, 2))
}

var donationCols = []string{"id", "donor_id", "name", "donated_on", "quantity_ml", "center", "status", "created_at"}

func TestExpireDonation(t *testing.T) {
	l, mock, _ := newLedger(t)

	// ledger row before donation row, as in FulfillRequest
	mock.ExpectBegin()
	expectDonationPeek(mock, 4, "O–")
	expectLock(mock, "O–", 450)
	mock.ExpectQuery(`FROM donation d JOIN blood_group g .* WHERE d.id = \? FOR UPDATE`).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(donationCols).AddRow(4, 2, "O–", fixedNow, 450, "City", "available", fixedNow))
	mock.ExpectExec(`UPDATE donation SET status`).
		WithArgs("expired", uint64(4), "available").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET i.total_ml = i.total_ml - \?`).
		WithArgs(uint64(450), "O–", uint64(450)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d, err := l.ExpireDonation(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, model.DonationExpired, d.Status)
}

func TestExpireDonation_AlreadyUsed(t *testing.T) {
	l, mock, _ := newLedger(t)

	mock.ExpectBegin()
	expectDonationPeek(mock, 4, "O–")
	expectLock(mock, "O–", 0)
	mock.ExpectQuery(`WHERE d.id = \? FOR UPDATE`).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(donationCols).AddRow(4, 2, "O–", fixedNow, 450, "City", "used", fixedNow))
	mock.ExpectRollback()

	_, err := l.ExpireDonation(context.Background(), 4)
	require.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestExpireDonation_NotFoundTakesNoLocks(t *testing.T) {
	l, mock, _ := newLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE d\.id = \?$`).WithArgs(uint64(9)).WillReturnRows(sqlmock.NewRows(donationCols))
	mock.ExpectRollback()

	_, err := l.ExpireDonation(context.Background(), 9)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

// expectDonationPeek expects the unlocked read that finds the unit's group.
func expectDonationPeek(mock sqlmock.Sqlmock, id uint64, group string) {
	mock.ExpectQuery(`WHERE d\.id = \?$`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(donationCols).AddRow(id, 2, group, fixedNow, 450, "City", "available", fixedNow))
}

var requestCols = []string{"id", "requested_by", "patient_name", "name", "requested_ml", "hospital", "requested_on", "status", "created_at"}

func TestFulfillRequest_AllocatesOldestUnits(t *testing.T) {
	l, mock, pub := newLedger(t)
	today := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM request r JOIN blood_group g .* WHERE r.id = \? FOR UPDATE`).
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(requestCols).AddRow(8, 3, "Bob", "A+", 600, "General", today, "pending", today))
	expectLock(mock, "A+", 1350)
	mock.ExpectQuery(`ORDER BY d.donated_on ASC, d.id ASC FOR UPDATE`).
		WithArgs("available", "A+").
		WillReturnRows(sqlmock.NewRows(donationCols).
			AddRow(1, 2, "A+", d1, 450, "City", "available", d1).
			AddRow(2, 5, "A+", d2, 450, "City", "available", d2).
			AddRow(3, 6, "A+", d2, 450, "City", "available", d2))
	mock.ExpectExec(`UPDATE donation SET status`).WithArgs("used", uint64(1), "available").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE donation SET status`).WithArgs("used", uint64(2), "available").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transfusion`).
		WithArgs(uint64(1), uint64(8), today, uint64(2), uint64(8), today).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec(`SET i.total_ml = i.total_ml - \?`).
		WithArgs(uint64(900), "A+", uint64(900)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE request SET status`).WithArgs("fulfilled", uint64(8), "pending").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := l.FulfillRequest(context.Background(), 8, 99)
	require.NoError(t, err)
	require.Equal(t, model.RequestFulfilled, got.Request.Status)
	require.Equal(t, uint64(900), got.AllocatedML)
	require.Len(t, got.Transfusions, 2)

	ev := pub.events[0].(queue.RequestFulfilledEvent)
	require.Equal(t, []uint64{1, 2}, ev.DonationIDs)
	require.Equal(t, uint64(99), ev.FulfilledBy)
}

func TestFulfillRequest_InsufficientStockRollsBack(t *testing.T) {
	l, mock, pub := newLedger(t)
	today := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE r.id = \? FOR UPDATE`).
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(requestCols).AddRow(8, 3, "Bob", "AB–", 1000, "General", today, "pending", today))
	expectLock(mock, "AB–", 450)
	mock.ExpectQuery(`ORDER BY d.donated_on ASC`).
		WillReturnRows(sqlmock.NewRows(donationCols).AddRow(1, 2, "AB–", today, 450, "City", "available", today))
	mock.ExpectRollback()

	_, err := l.FulfillRequest(context.Background(), 8, 99)
	require.ErrorIs(t, err, repository.ErrInsufficientStock)
	require.Empty(t, pub.keys)
}

func TestFulfillRequest_NotPending(t *testing.T) {
	l, mock, _ := newLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE r.id = \? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(requestCols).AddRow(8, 3, "Bob", "A+", 100, "General", fixedNow, "cancelled", fixedNow))
	mock.ExpectRollback()

	_, err := l.FulfillRequest(context.Background(), 8, 99)
	require.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestCancelRequest(t *testing.T) {
	l, mock, _ := newLedger(t)

	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(requestCols).AddRow(8, 3, "Bob", "A+", 100, "General", fixedNow, "pending", fixedNow)
	}

	// someone else's request, plain user
	mock.ExpectQuery(`WHERE r.id = \?`).WithArgs(uint64(8)).WillReturnRows(row())
	_, err := l.CancelRequest(context.Background(), 8, session.Claims{UserID: 4, Role: model.RoleUser})
	require.ErrorIs(t, err, ErrNotOwner)

	// owner
	mock.ExpectQuery(`WHERE r.id = \?`).WithArgs(uint64(8)).WillReturnRows(row())
	mock.ExpectExec(`UPDATE request SET status`).WithArgs("cancelled", uint64(8), "pending").WillReturnResult(sqlmock.NewResult(0, 1))
	req, err := l.CancelRequest(context.Background(), 8, session.Claims{UserID: 3, Role: model.RoleUser})
	require.NoError(t, err)
	require.Equal(t, model.RequestCancelled, req.Status)

	// staff, but already fulfilled in the meantime
	mock.ExpectQuery(`WHERE r.id = \?`).WithArgs(uint64(8)).WillReturnRows(row())
	mock.ExpectExec(`UPDATE request SET status`).WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = l.CancelRequest(context.Background(), 8, session.Claims{UserID: 9, Role: model.RoleStaff})
	require.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestAllocate(t *testing.T) {
	units := []model.Donation{{ID: 1, QuantityML: 450}, {ID: 2, QuantityML: 300}, {ID: 3, QuantityML: 450}}

	got, total, ok := Allocate(units, 450)
	require.True(t, ok)
	require.Equal(t, uint64(450), total)
	require.Len(t, got, 1)

	got, total, ok = Allocate(units, 451)
	require.True(t, ok)
	require.Equal(t, uint64(750), total)
	require.Len(t, got, 2)

	_, _, ok = Allocate(units, 1201)
	require.False(t, ok)

	_, _, ok = Allocate(nil, 1)
	require.False(t, ok)
}
