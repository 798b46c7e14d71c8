package counters

import (
	"context"
	"database/sql"
	"errors"
)

// PGStore implements Store using Postgres.
type PGStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed counter store.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

// Increment bumps the counter atomically, so concurrent submissions by the
// same user cannot lose updates.
func (s *PGStore) Increment(ctx context.Context, userID string) error {
	const query = `
INSERT INTO check_counters (user_id, counter)
VALUES ($1, 1)
ON CONFLICT (user_id) DO UPDATE SET counter = check_counters.counter + 1`

	_, err := s.DB.ExecContext(ctx, query, userID)
	return err
}

// Get returns the user's counter, or 0 if no row exists.
func (s *PGStore) Get(ctx context.Context, userID string) (int64, error) {
	const query = `SELECT counter FROM check_counters WHERE user_id = $1`

	var counter int64
	err := s.DB.QueryRowContext(ctx, query, userID).Scan(&counter)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter, nil
}

var _ Store = (*PGStore)(nil)
