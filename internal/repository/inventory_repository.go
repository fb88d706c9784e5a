package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/iliyamo/bloodbank/internal/dbx"
	"github.com/iliyamo/bloodbank/internal/model"
)

// InventoryRepo maintains the per-group running totals.  Totals are only
// changed inside transactions that also change the donation or
// transfusion rows they summarise.
type InventoryRepo struct {
	db *sql.DB
}

func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// List returns exactly one entry per blood group, ordered by group name.
// Groups without a ledger row are reported with a zero total.
func (r *InventoryRepo) List(ctx context.Context) ([]model.InventoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.name, COALESCE(i.total_ml, 0) FROM blood_group g LEFT JOIN inventory i ON i.blood_group_id = g.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[model.BloodGroup]uint64, len(model.BloodGroups))
	for rows.Next() {
		var (
			name  string
			total uint64
		)
		if err := rows.Scan(&name, &total); err != nil {
			return nil, err
		}
		totals[model.BloodGroup(name)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.InventoryEntry, 0, len(model.BloodGroups))
	for _, g := range model.BloodGroups {
		out = append(out, model.InventoryEntry{BloodGroup: g, TotalML: totals[g]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BloodGroup < out[j].BloodGroup })
	return out, nil
}

// LockTx creates the group's ledger row if it is missing, then locks it
// and returns the current total.
func (r *InventoryRepo) LockTx(ctx context.Context, tx dbx.DBTX, group model.BloodGroup) (uint64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO inventory (blood_group_id, total_ml) SELECT id, 0 FROM blood_group WHERE name = ?`,
		string(group)); err != nil {
		return 0, err
	}
	var total uint64
	err := tx.QueryRowContext(ctx,
		`SELECT i.total_ml FROM inventory i JOIN blood_group g ON g.id = i.blood_group_id WHERE g.name = ? FOR UPDATE`,
		string(group)).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return total, err
}

// IncrementTx adds ml to the group's total.
func (r *InventoryRepo) IncrementTx(ctx context.Context, tx dbx.DBTX, group model.BloodGroup, ml uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory i JOIN blood_group g ON g.id = i.blood_group_id SET i.total_ml = i.total_ml + ? WHERE g.name = ?`,
		ml, string(group))
	if err != nil {
		return err
	}
	return expectOne(res)
}

// DecrementTx subtracts ml from the group's total.  It fails with
// ErrInsufficientStock rather than let the total go negative.
func (r *InventoryRepo) DecrementTx(ctx context.Context, tx dbx.DBTX, group model.BloodGroup, ml uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory i JOIN blood_group g ON g.id = i.blood_group_id SET i.total_ml = i.total_ml - ? WHERE g.name = ? AND i.total_ml >= ?`,
		ml, string(group), ml)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}
