package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/bloodbank/internal/model"
)

// ActivityRepo assembles a user's recent activity feed from donations,
// requests and support tickets.
type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

const activityQuery = `
SELECT CONCAT('donation-', d.id), CONCAT('Donated ', d.quantity_ml, ' ml at ', d.center), CAST(d.donated_on AS DATETIME) AS at
  FROM donation d WHERE d.donor_id = ?
UNION ALL
SELECT CONCAT('request-', r.id), CONCAT('Requested ', r.requested_ml, ' ml of ', g.name, ' for ', r.patient_name, ' (', r.status, ')'), CAST(r.requested_on AS DATETIME)
  FROM request r JOIN blood_group g ON g.id = r.blood_group_id WHERE r.requested_by = ?
UNION ALL
SELECT CONCAT('support-', s.reference), CONCAT(s.type, ' query: ', s.subject), s.created_at
  FROM support_query s WHERE s.user_id = ?
ORDER BY at DESC
LIMIT ?`

// Recent returns at most limit items, newest first.
func (r *ActivityRepo) Recent(ctx context.Context, userID uint64, limit int) ([]model.ActivityItem, error) {
	rows, err := r.db.QueryContext(ctx, activityQuery, userID, userID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ActivityItem{}
	for rows.Next() {
		var it model.ActivityItem
		if err := rows.Scan(&it.ID, &it.Description, &it.Date); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
