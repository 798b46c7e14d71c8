package certificates

import (
	"context"
	"time"

	"certificate-backend/internal/terms"
)

// Finalization carries everything the pipeline persists at its end: the
// certificate's terminal statuses, the raw file bytes (when storage
// accepted them), and the reconciled term associations. All of it commits
// in one transaction.
type Finalization struct {
	Certificate  Certificate
	Content      []byte // nil when the storage write failed
	Associations []terms.UserTerm
}

// Repo defines persistence operations for certificates.
type Repo interface {
	// Create inserts the initial record in its own transaction.
	Create(ctx context.Context, cert Certificate) error
	// Finalize writes terminal statuses, the binary blob, and term
	// associations atomically.
	Finalize(ctx context.Context, fin Finalization) error
	GetByID(ctx context.Context, userID, id string) (Certificate, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Certificate, error)
	// ExpireStuck moves records left VERIFYING since before cutoff to
	// REJECTED/VERIFICATION_TIMEOUT and returns the affected ids.
	ExpireStuck(ctx context.Context, cutoff time.Time) ([]string, error)
}
