package terms

import "context"

// Repo reads the canonical term set.
type Repo interface {
	// ListIDs returns the full set of known term ids.
	ListIDs(ctx context.Context) ([]string, error)
}
