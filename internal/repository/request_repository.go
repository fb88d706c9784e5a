package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/bloodbank/internal/dbx"
	"github.com/iliyamo/bloodbank/internal/model"
)

// RequestRepo reads and writes transfusion requests.
type RequestRepo struct {
	db *sql.DB
}

func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

// RequestFilter narrows List.  RequestedBy of zero means every requester.
type RequestFilter struct {
	RequestedBy uint64
	Status      model.RequestStatus
}

var requestColumns = []string{
	"r.id", "r.requested_by", "r.patient_name", "g.name", "r.requested_ml", "r.hospital", "r.requested_on", "r.status", "r.created_at",
}

func requestBase() sq.SelectBuilder {
	return sq.Select(requestColumns...).
		From("request r").
		Join("blood_group g ON g.id = r.blood_group_id")
}

// Create inserts a pending request and sets req.ID.
func (r *RequestRepo) Create(ctx context.Context, req *model.Request) error {
	const q = `INSERT INTO request (requested_by, patient_name, blood_group_id, requested_ml, hospital, requested_on, status)
VALUES (?, ?, (SELECT id FROM blood_group WHERE name = ?), ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, req.RequestedBy, req.PatientName, string(req.BloodGroup), req.RequestedML, req.Hospital, req.RequestedOn, string(req.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	return nil
}

// GetByID loads one request.
func (r *RequestRepo) GetByID(ctx context.Context, id uint64) (model.Request, error) {
	return r.get(ctx, r.db, id, false)
}

// GetForUpdateTx loads one request and locks its row.
func (r *RequestRepo) GetForUpdateTx(ctx context.Context, tx dbx.DBTX, id uint64) (model.Request, error) {
	return r.get(ctx, tx, id, true)
}

func (r *RequestRepo) get(ctx context.Context, db dbx.DBTX, id uint64, lock bool) (model.Request, error) {
	b := requestBase().Where(sq.Eq{"r.id": id})
	if lock {
		b = b.Suffix("FOR UPDATE")
	}
	q, args, err := b.ToSql()
	if err != nil {
		return model.Request{}, err
	}
	req, err := scanRequest(db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Request{}, ErrNotFound
	}
	return req, err
}

// SetStatusTx moves a request from one status to another, failing with
// ErrInvalidTransition if it is no longer in the expected state.
func (r *RequestRepo) SetStatusTx(ctx context.Context, tx dbx.DBTX, id uint64, from, to model.RequestStatus) error {
	res, err := tx.ExecContext(ctx, "UPDATE request SET status = ? WHERE id = ? AND status = ?", string(to), id, string(from))
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

// List returns one page of requests, newest first.
func (r *RequestRepo) List(ctx context.Context, f RequestFilter, page model.Page) ([]model.Request, int, error) {
	where := sq.And{}
	if f.RequestedBy != 0 {
		where = append(where, sq.Eq{"r.requested_by": f.RequestedBy})
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"r.status": string(f.Status)})
	}

	countQ, countArgs, err := sq.Select("COUNT(*)").From("request r").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	q, args, err := requestBase().
		Where(where).
		OrderBy("r.requested_on DESC", "r.id DESC").
		Limit(uint64(page.Size)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

func scanRequest(row rowScanner) (model.Request, error) {
	var (
		req    model.Request
		group  string
		status string
	)
	if err := row.Scan(&req.ID, &req.RequestedBy, &req.PatientName, &group, &req.RequestedML, &req.Hospital, &req.RequestedOn, &status, &req.CreatedAt); err != nil {
		return model.Request{}, err
	}
	req.BloodGroup = model.BloodGroup(group)
	req.Status = model.RequestStatus(status)
	return req, nil
}
