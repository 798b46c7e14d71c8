package terms

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"certificate-backend/internal/verify"
)

// Reconciler maps verification skill matches onto canonical terms.
type Reconciler struct {
	Repo Repo
}

// Reconcile filters the verifier's skill matches to those whose id exists
// in the canonical term set, loaded fresh per invocation, and produces one
// association per survivor. Unknown ids are dropped silently: matches
// against terms this system does not know are expected, not an error.
func (r *Reconciler) Reconcile(ctx context.Context, userID, certificateID string, matches []verify.SkillMatch) ([]UserTerm, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	ids, err := r.Repo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list term ids: %w", err)
	}
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	var out []UserTerm
	for _, m := range matches {
		if _, ok := known[m.ID]; !ok {
			continue
		}
		out = append(out, UserTerm{
			ID:            uuid.NewString(),
			UserID:        userID,
			TermID:        m.ID,
			CertificateID: certificateID,
			MatchCount:    m.MatchCount,
		})
	}
	return out, nil
}
