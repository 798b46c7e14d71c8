package terms

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repo for development and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	terms map[string]Term
}

// NewMemoryRepo creates an empty in-memory term repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{terms: make(map[string]Term)}
}

// Seed adds canonical terms.
func (r *MemoryRepo) Seed(ts ...Term) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range ts {
		r.terms[t.ID] = t
	}
}

// ListIDs returns the ids of all seeded terms.
func (r *MemoryRepo) ListIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.terms))
	for id := range r.terms {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ Repo = (*MemoryRepo)(nil)
