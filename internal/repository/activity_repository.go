package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rootsarchive/heritage-archive/internal/model"
)

// ActivityRepo persists the audit trail written by the auth-events consumer
// and read by the dashboard.
type ActivityRepo struct{ DB *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{DB: db} }

// Insert appends one audit entry.
func (r *ActivityRepo) Insert(ctx context.Context, eventType string, userID uint64, email, detail string, occurredAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO activity_log (event_type, user_id, email, detail, occurred_at) VALUES (?,?,?,?,?)",
		eventType, userID, email, detail, occurredAt)
	return err
}

// Recent returns the newest entries, capped at limit.
func (r *ActivityRepo) Recent(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, event_type, user_id, email, detail, occurred_at, created_at FROM activity_log ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		if err := rows.Scan(&e.ID, &e.EventType, &e.UserID, &e.Email, &e.Detail, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
