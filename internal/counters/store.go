package counters

import "context"

// Store tracks per-user check counters for audit and rate observation.
type Store interface {
	// Increment bumps the user's counter by one. The counter only grows.
	Increment(ctx context.Context, userID string) error
	// Get returns the user's current counter (0 if never incremented).
	Get(ctx context.Context, userID string) (int64, error)
}
