package repository

import (
	"context"
	"database/sql"

	"github.com/rootsarchive/heritage-archive/internal/model"
)

// RoleRepo reads the seeded roles table. It is queried once at startup to
// build the in-memory permission table; the request path never touches it.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// All returns every role row.
func (r *RoleRepo) All(ctx context.Context) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, permissions FROM roles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Permissions); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
