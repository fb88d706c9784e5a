package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/bloodbank/internal/dbx"
	"github.com/iliyamo/bloodbank/internal/model"
)

// DonationRepo reads and writes the donation table.  Methods suffixed Tx
// run on a caller-owned transaction; the caller commits or rolls back.
type DonationRepo struct {
	db *sql.DB
}

func NewDonationRepo(db *sql.DB) *DonationRepo { return &DonationRepo{db: db} }

var donationColumns = []string{
	"d.id", "d.donor_id", "g.name", "d.donated_on", "d.quantity_ml", "d.center", "d.status", "d.created_at",
}

func donationBase() sq.SelectBuilder {
	return sq.Select(donationColumns...).
		From("donation d").
		Join("blood_group g ON g.id = d.blood_group_id")
}

// CreateTx inserts d and sets d.ID.  The blood group is resolved by name.
func (r *DonationRepo) CreateTx(ctx context.Context, tx dbx.DBTX, d *model.Donation) error {
	const q = `INSERT INTO donation (donor_id, blood_group_id, donated_on, quantity_ml, center, status)
VALUES (?, (SELECT id FROM blood_group WHERE name = ?), ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, d.DonorID, string(d.BloodGroup), d.DonatedOn, d.QuantityML, d.Center, string(d.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// GetTx loads a donation without locking it.
func (r *DonationRepo) GetTx(ctx context.Context, tx dbx.DBTX, id uint64) (model.Donation, error) {
	q, args, err := donationBase().Where(sq.Eq{"d.id": id}).ToSql()
	if err != nil {
		return model.Donation{}, err
	}
	d, err := scanDonation(tx.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Donation{}, ErrNotFound
	}
	return d, err
}

// GetForUpdateTx loads a donation and locks its row.
func (r *DonationRepo) GetForUpdateTx(ctx context.Context, tx dbx.DBTX, id uint64) (model.Donation, error) {
	q, args, err := donationBase().Where(sq.Eq{"d.id": id}).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return model.Donation{}, err
	}
	d, err := scanDonation(tx.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Donation{}, ErrNotFound
	}
	return d, err
}

// SetStatusTx moves a donation from one status to another.  It returns
// ErrInvalidTransition when the row is not in the expected state.
func (r *DonationRepo) SetStatusTx(ctx context.Context, tx dbx.DBTX, id uint64, from, to model.DonationStatus) error {
	res, err := tx.ExecContext(ctx, "UPDATE donation SET status = ? WHERE id = ? AND status = ?", string(to), id, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// AvailableForGroupTx returns the available units of a group, oldest
// first, locking them for allocation.
func (r *DonationRepo) AvailableForGroupTx(ctx context.Context, tx dbx.DBTX, group model.BloodGroup) ([]model.Donation, error) {
	q, args, err := donationBase().
		Where(sq.Eq{"g.name": string(group), "d.status": string(model.DonationAvailable)}).
		OrderBy("d.donated_on ASC", "d.id ASC").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, err
	}
	return queryDonations(ctx, tx, q, args)
}

// ListByDonor returns one page of a donor's history matching filter,
// newest first, together with the total number of matching rows.
func (r *DonationRepo) ListByDonor(ctx context.Context, donorID uint64, filter model.DonationFilter, page model.Page) ([]model.Donation, int, error) {
	where := donationFilter(donorID, filter)

	countQ, countArgs, err := sq.Select("COUNT(*)").From("donation d").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count donations: %w", err)
	}

	q, args, err := donationBase().
		Where(where).
		OrderBy("d.donated_on DESC", "d.id DESC").
		Limit(uint64(page.Size)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	items, err := queryDonations(ctx, r.db, q, args)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func donationFilter(donorID uint64, f model.DonationFilter) sq.And {
	where := sq.And{sq.Eq{"d.donor_id": donorID}}
	if f.Year > 0 {
		from := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		where = append(where,
			sq.GtOrEq{"d.donated_on": from},
			sq.Lt{"d.donated_on": from.AddDate(1, 0, 0)})
	}
	if f.Center != "" {
		where = append(where, sq.Eq{"d.center": f.Center})
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"d.status": string(f.Status)})
	}
	return where
}

// Facet names accepted by Distinct.
const (
	FacetCenters  = "centers"
	FacetStatuses = "statuses"
)

var facetColumns = map[string]string{
	FacetCenters:  "center",
	FacetStatuses: "status",
}

// Distinct returns the sorted distinct values of a facet across one
// donor's donations.
func (r *DonationRepo) Distinct(ctx context.Context, donorID uint64, facet string) ([]string, error) {
	col, ok := facetColumns[facet]
	if !ok {
		return nil, fmt.Errorf("unknown facet %q", facet)
	}
	q, args, err := sq.Select("DISTINCT " + col).
		From("donation").
		Where(sq.Eq{"donor_id": donorID}).
		OrderBy(col).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// LatestForDonor returns the date of the donor's most recent donation,
// or nil when there is none.
func (r *DonationRepo) LatestForDonor(ctx context.Context, donorID uint64) (*time.Time, error) {
	var last sql.NullTime
	err := r.db.QueryRowContext(ctx, "SELECT MAX(donated_on) FROM donation WHERE donor_id = ?", donorID).Scan(&last)
	if err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time
	return &t, nil
}

func queryDonations(ctx context.Context, db dbx.DBTX, q string, args []any) ([]model.Donation, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Donation{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDonation(row rowScanner) (model.Donation, error) {
	var (
		d      model.Donation
		group  string
		status string
	)
	if err := row.Scan(&d.ID, &d.DonorID, &group, &d.DonatedOn, &d.QuantityML, &d.Center, &status, &d.CreatedAt); err != nil {
		return model.Donation{}, err
	}
	d.BloodGroup = model.BloodGroup(group)
	d.Status = model.DonationStatus(status)
	return d, nil
}
