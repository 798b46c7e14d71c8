package terms

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// ListIDs returns all distinct canonical term ids.
func (r *PGRepo) ListIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT id FROM terms`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
