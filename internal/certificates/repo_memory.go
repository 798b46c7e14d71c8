package certificates

import (
	"context"
	"sort"
	"sync"
	"time"

	"certificate-backend/internal/terms"
)

// MemoryRepo is an in-memory Repo for development and tests.
type MemoryRepo struct {
	mu           sync.Mutex
	certs        map[string]Certificate
	blobs        map[string][]byte
	associations map[string][]terms.UserTerm
}

// NewMemoryRepo creates an empty in-memory certificate repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		certs:        make(map[string]Certificate),
		blobs:        make(map[string][]byte),
		associations: make(map[string][]terms.UserTerm),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, cert Certificate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.certs[cert.ID] = cert
	return nil
}

func (r *MemoryRepo) Finalize(ctx context.Context, fin Finalization) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.certs[fin.Certificate.ID]
	if !ok || existing.GeneralStatus != StatusVerifying {
		// Already terminal; the blob and associations belong to the
		// terminal resolution, so nothing else may attach.
		return nil
	}
	r.certs[fin.Certificate.ID] = fin.Certificate
	if fin.Content != nil {
		r.blobs[fin.Certificate.ID] = fin.Content
	}
	if len(fin.Associations) > 0 {
		r.associations[fin.Certificate.ID] = append(r.associations[fin.Certificate.ID], fin.Associations...)
	}
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, id string) (Certificate, error) {
	if err := ctx.Err(); err != nil {
		return Certificate{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cert, ok := r.certs[id]
	if !ok || cert.UserID != userID {
		return Certificate{}, ErrNotFound
	}
	return cert, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Certificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Certificate
	for _, cert := range r.certs {
		if cert.UserID == userID {
			out = append(out, cert)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) ExpireStuck(ctx context.Context, cutoff time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id, cert := range r.certs {
		if cert.GeneralStatus == StatusVerifying && cert.CreatedAt.Before(cutoff) {
			cert.GeneralStatus = StatusRejected
			cert.DetailedStatus = DetailedVerifyTimeout
			cert.FrontStatus = FrontStatus(DetailedVerifyTimeout)
			r.certs[id] = cert
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Blob returns the stored file bytes for a certificate, if any.
func (r *MemoryRepo) Blob(id string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blobs[id]
	return b, ok
}

// Associations returns the term associations recorded for a certificate.
func (r *MemoryRepo) Associations(id string) []terms.UserTerm {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]terms.UserTerm(nil), r.associations[id]...)
}

var _ Repo = (*MemoryRepo)(nil)
