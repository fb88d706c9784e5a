package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/bloodbank/internal/database"
	"github.com/iliyamo/bloodbank/internal/dbx"
	"github.com/iliyamo/bloodbank/internal/model"
)

// TransfusionRepo links donated units to the requests that consumed them.
type TransfusionRepo struct {
	db *sql.DB
}

func NewTransfusionRepo(db *sql.DB) *TransfusionRepo { return &TransfusionRepo{db: db} }

// CreateBulkTx inserts all transfusions in one statement.  A unit that
// already has a transfusion yields ErrConflict.  An empty slice is a no-op.
func (r *TransfusionRepo) CreateBulkTx(ctx context.Context, tx dbx.DBTX, items []model.Transfusion) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO transfusion (donation_id, request_id, transfused_on) VALUES `
	args := make([]any, 0, len(items)*3)
	for i, t := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, t.DonationID, t.RequestID, t.TransfusedOn)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if database.IsDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// ListByRequest returns the units allocated to a request.
func (r *TransfusionRepo) ListByRequest(ctx context.Context, requestID uint64) ([]model.Transfusion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.donation_id, t.request_id, d.quantity_ml, t.transfused_on
FROM transfusion t JOIN donation d ON d.id = t.donation_id
WHERE t.request_id = ? ORDER BY t.id`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Transfusion{}
	for rows.Next() {
		var t model.Transfusion
		if err := rows.Scan(&t.ID, &t.DonationID, &t.RequestID, &t.QuantityML, &t.TransfusedOn); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
