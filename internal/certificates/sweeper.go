package certificates

import (
	"context"
	"time"

	"certificate-backend/internal/shared/metrics"
	"certificate-backend/internal/shared/telemetry"
)

// Sweeper force-rejects certificates stuck in VERIFYING. A pipeline that
// died between the initial persist and finalization would otherwise leave
// its record pending forever with no retry path.
type Sweeper struct {
	Repo     Repo
	After    time.Duration // how long VERIFYING may last before it counts as stuck
	Interval time.Duration // how often to scan
	Now      func() time.Time
}

// Run scans periodically until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				telemetry.Error("sweeper.failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

// Sweep performs one scan and returns how many records were expired.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	after := s.After
	if after <= 0 {
		after = 30 * time.Minute
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now()
	}

	ids, err := s.Repo.ExpireStuck(ctx, now.Add(-after))
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		metrics.VerificationTimeouts.Inc()
		telemetry.Warn("sweeper.expired", map[string]any{"certificate_id": id})
	}
	return len(ids), nil
}
