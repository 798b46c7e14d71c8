package certificates

import (
	"context"
	"testing"
	"time"

	"certificate-backend/internal/terms"
)

func TestSweepExpiresStuckRecords(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	seed := []Certificate{
		{ID: "stale", UserID: "u1", GeneralStatus: StatusVerifying, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "fresh", UserID: "u1", GeneralStatus: StatusVerifying, CreatedAt: now.Add(-5 * time.Minute)},
		{ID: "done", UserID: "u1", GeneralStatus: StatusVerified, FrontStatus: FrontSuccess, CreatedAt: now.Add(-3 * time.Hour)},
	}
	for _, cert := range seed {
		if err := repo.Create(context.Background(), cert); err != nil {
			t.Fatalf("seed %s: %v", cert.ID, err)
		}
	}

	sw := &Sweeper{
		Repo:  repo,
		After: 30 * time.Minute,
		Now:   func() time.Time { return now },
	}

	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired %d records, want 1", n)
	}

	stale, err := repo.GetByID(context.Background(), "u1", "stale")
	if err != nil {
		t.Fatalf("get stale: %v", err)
	}
	if stale.GeneralStatus != StatusRejected || stale.DetailedStatus != DetailedVerifyTimeout {
		t.Fatalf("stale = %s/%s, want %s/%s", stale.GeneralStatus, stale.DetailedStatus, StatusRejected, DetailedVerifyTimeout)
	}

	fresh, _ := repo.GetByID(context.Background(), "u1", "fresh")
	if fresh.GeneralStatus != StatusVerifying {
		t.Fatalf("fresh record expired too early: %s", fresh.GeneralStatus)
	}
	done, _ := repo.GetByID(context.Background(), "u1", "done")
	if done.GeneralStatus != StatusVerified {
		t.Fatalf("terminal record touched by the sweeper: %s", done.GeneralStatus)
	}
}

func TestSweptRecordRejectsLateFinalization(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	if err := repo.Create(context.Background(), Certificate{
		ID: "cert-1", UserID: "u1", GeneralStatus: StatusVerifying, CreatedAt: now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sw := &Sweeper{Repo: repo, After: 30 * time.Minute}
	if n, err := sw.Sweep(context.Background()); err != nil || n != 1 {
		t.Fatalf("sweep: n=%d err=%v", n, err)
	}

	// A pipeline that finishes after the sweep must not resurrect the
	// record or attach anything to it.
	err := repo.Finalize(context.Background(), Finalization{
		Certificate: Certificate{
			ID:            "cert-1",
			UserID:        "u1",
			GeneralStatus: StatusVerified,
			FrontStatus:   FrontSuccess,
		},
		Content:      []byte("file bytes"),
		Associations: []terms.UserTerm{{ID: "ut-1", UserID: "u1", TermID: "term-go", CertificateID: "cert-1"}},
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	cert, err := repo.GetByID(context.Background(), "u1", "cert-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cert.GeneralStatus != StatusRejected || cert.DetailedStatus != DetailedVerifyTimeout {
		t.Fatalf("record = %s/%s, want %s/%s", cert.GeneralStatus, cert.DetailedStatus, StatusRejected, DetailedVerifyTimeout)
	}
	if _, ok := repo.Blob("cert-1"); ok {
		t.Fatalf("blob attached to a swept record")
	}
	if got := repo.Associations("cert-1"); len(got) != 0 {
		t.Fatalf("%d associations attached to a swept record", len(got))
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	if err := repo.Create(context.Background(), Certificate{
		ID: "stale", UserID: "u1", GeneralStatus: StatusVerifying, CreatedAt: now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sw := &Sweeper{Repo: repo, After: 30 * time.Minute}
	if n, err := sw.Sweep(context.Background()); err != nil || n != 1 {
		t.Fatalf("first sweep: n=%d err=%v", n, err)
	}
	if n, err := sw.Sweep(context.Background()); err != nil || n != 0 {
		t.Fatalf("second sweep: n=%d err=%v", n, err)
	}
}
