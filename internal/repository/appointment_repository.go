package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/bloodbank/internal/model"
)

type AppointmentRepo struct {
	db *sql.DB
}

func NewAppointmentRepo(db *sql.DB) *AppointmentRepo { return &AppointmentRepo{db: db} }

// Create books an appointment and sets a.ID.
func (r *AppointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO appointment (user_id, scheduled_on, scheduled_time, location) VALUES (?, ?, ?, ?)`,
		a.UserID, a.ScheduledOn, a.Time, a.Location)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// NextUpcoming returns the user's earliest appointment on or after
// today, or nil.
func (r *AppointmentRepo) NextUpcoming(ctx context.Context, userID uint64, today time.Time) (*model.Appointment, error) {
	var a model.Appointment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, scheduled_on, scheduled_time, location, created_at FROM appointment
WHERE user_id = ? AND scheduled_on >= ? ORDER BY scheduled_on, scheduled_time LIMIT 1`,
		userID, today).Scan(&a.ID, &a.UserID, &a.ScheduledOn, &a.Time, &a.Location, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
