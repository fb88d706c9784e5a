package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/bloodbank/internal/model"
)

// SupportRepo stores support tickets and contact-form messages.
type SupportRepo struct {
	db *sql.DB
}

func NewSupportRepo(db *sql.DB) *SupportRepo { return &SupportRepo{db: db} }

// CreateQuery stores a support ticket.  A reference is generated when q
// has none; both ID and Reference are set on return.
func (r *SupportRepo) CreateQuery(ctx context.Context, q *model.SupportQuery) error {
	if q.Reference == "" {
		q.Reference = uuid.NewString()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO support_query (reference, user_id, type, subject, message) VALUES (?, ?, ?, ?, ?)`,
		q.Reference, q.UserID, q.Type, strings.TrimSpace(q.Subject), q.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	q.ID = uint64(id)
	return nil
}

// CreateContact stores an unauthenticated contact-form message.
func (r *SupportRepo) CreateContact(ctx context.Context, m *model.ContactMessage) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contact_message (name, email, message) VALUES (?, ?, ?)`,
		strings.TrimSpace(m.Name), strings.ToLower(strings.TrimSpace(m.Email)), m.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}
