package certificates

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/google/uuid"

	"certificate-backend/internal/counters"
	"certificate-backend/internal/shared/metrics"
	"certificate-backend/internal/shared/storage/blob"
	"certificate-backend/internal/shared/telemetry"
	"certificate-backend/internal/terms"
	"certificate-backend/internal/validation"
	"certificate-backend/internal/verify"
)

// Verifier is the verification client seam, overridable in tests.
type Verifier interface {
	Verify(ctx context.Context, req verify.Request) verify.Result
}

// Service owns the certificate ingestion pipeline:
// validate → persist initial → dispatch verification → poll → reconcile
// terms → write storage → persist final.
type Service struct {
	Repo     Repo
	Blobs    blob.Store
	Verifier Verifier
	Terms    *terms.Reconciler
	Counters counters.Store
	IconSize image.Point
	Now      func() time.Time
}

// Process runs one upload through the whole pipeline. It is invoked as a
// detached background unit of work: nothing is returned, all outcomes
// surface through the persisted record and logs.
func (s *Service) Process(ctx context.Context, up Upload) {
	fields := map[string]any{"user_id": up.UserID}
	telemetry.Info("certificate.started", fields)
	metrics.PipelinesStarted.Inc()

	// Explicit post-steps, applied no matter how the pipeline exits:
	// completion log first, counter bump after.
	defer s.bumpCounter(ctx, up.UserID)
	defer func() { telemetry.Info("certificate.completed", fields) }()

	title := DecodeTitle(up.Title)

	res := validation.Inspect(up.Content, up.FileName, up.ContentType, s.iconSize())

	cert := Certificate{
		ID:               uuid.NewString(),
		UserID:           up.UserID,
		OriginalFilename: up.FileName,
		Extension:        res.Extension,
		MimeType:         res.MimeType,
		Checksum:         res.Checksum,
		FileName:         res.StorageName,
		CourseURL:        up.CourseURL,
		CourseTitle:      title,
		ImageIcon:        res.Icon,
		GeneralStatus:    StatusVerifying,
		CreatedAt:        s.now(),
	}
	if !res.Accepted() {
		cert.GeneralStatus = StatusRejected
		cert.DetailedStatus = DetailedFromRejection(res.Rejection)
		cert.FrontStatus = FrontStatus(cert.DetailedStatus)
	}
	fields["certificate_id"] = cert.ID

	telemetry.Info("certificate.validated", map[string]any{
		"certificate_id": cert.ID,
		"user_id":        up.UserID,
		"extension":      cert.Extension,
		"checksum":       cert.Checksum,
		"accepted":       res.Accepted(),
		"rejection":      string(res.Rejection),
	})

	// The initial persist is the only fatal failure point: without a
	// record there is nothing for later steps to attach to.
	if err := s.Repo.Create(ctx, cert); err != nil {
		telemetry.Error("certificate.create_failed", map[string]any{
			"certificate_id": cert.ID,
			"user_id":        up.UserID,
			"error":          err.Error(),
		})
		return
	}

	if cert.GeneralStatus == StatusRejected {
		telemetry.Info("certificate.rejected", map[string]any{
			"certificate_id": cert.ID,
			"user_id":        up.UserID,
			"detailed":       string(cert.DetailedStatus),
		})
		metrics.PipelinesCompleted.WithLabelValues("rejected").Inc()
		return
	}

	vres := s.Verifier.Verify(ctx, verify.Request{
		Title:  title,
		URL:    up.CourseURL,
		UserID: up.UserID,
	})

	var associations []terms.UserTerm
	if !vres.Verified {
		// TODO: handle not-verified results once product defines what a
		// failed verification should do beyond completing unverified.
	} else if len(vres.Skills) != 0 {
		var err error
		associations, err = s.Terms.Reconcile(ctx, up.UserID, cert.ID, vres.Skills)
		if err != nil {
			telemetry.Error("certificate.reconcile_failed", map[string]any{
				"certificate_id": cert.ID,
				"user_id":        up.UserID,
				"error":          err.Error(),
			})
			associations = nil
		}
	}

	// Storage write happens only after verification resolved, whatever
	// the outcome.
	content := up.Content
	_, writeErr := s.Blobs.Write(ctx, up.UserID, cert.StoredName(), up.Content)
	switch {
	case writeErr == nil:
		if vres.TimedOut {
			cert.GeneralStatus = StatusRejected
			cert.DetailedStatus = DetailedVerifyTimeout
		} else {
			cert.GeneralStatus = StatusVerified
			cert.DetailedStatus = DetailedNone
		}
	case errors.Is(writeErr, blob.ErrExists):
		telemetry.Error("certificate.storage_collision", map[string]any{
			"certificate_id": cert.ID,
			"user_id":        up.UserID,
		})
		cert.GeneralStatus = StatusRejected
		cert.DetailedStatus = DetailedFilePathError
		content = nil
	default:
		telemetry.Error("certificate.storage_write_failed", map[string]any{
			"certificate_id": cert.ID,
			"user_id":        up.UserID,
			"error":          writeErr.Error(),
		})
		cert.GeneralStatus = StatusRejected
		cert.DetailedStatus = DetailedFilePathError
		content = nil
	}

	if cert.GeneralStatus == StatusVerified {
		cert.FrontStatus = FrontSuccess
	} else {
		cert.FrontStatus = FrontStatus(cert.DetailedStatus)
	}

	if err := s.Repo.Finalize(ctx, Finalization{
		Certificate:  cert,
		Content:      content,
		Associations: associations,
	}); err != nil {
		// Best effort: the pipeline still completes, the record keeps
		// its pre-finalize state.
		telemetry.Error("certificate.finalize_failed", map[string]any{
			"certificate_id": cert.ID,
			"user_id":        up.UserID,
			"error":          err.Error(),
		})
	}

	// Derived from the persisted statuses so the metric and the record
	// always agree; a storage failure masks a verification timeout.
	outcome := "rejected"
	switch {
	case cert.GeneralStatus == StatusVerified:
		outcome = "verified"
	case cert.DetailedStatus == DetailedVerifyTimeout:
		outcome = "timeout"
	}
	metrics.PipelinesCompleted.WithLabelValues(outcome).Inc()

	telemetry.Info("certificate.finalized", map[string]any{
		"certificate_id": cert.ID,
		"user_id":        up.UserID,
		"general":        string(cert.GeneralStatus),
		"detailed":       string(cert.DetailedStatus),
		"front":          string(cert.FrontStatus),
		"verified":       vres.Verified,
		"associations":   len(associations),
	})
}

// bumpCounter increments the per-user check counter in its own
// transaction. Failures are logged and swallowed: the counter is an audit
// aid, never a reason to fail an upload.
func (s *Service) bumpCounter(ctx context.Context, userID string) {
	if s.Counters == nil {
		return
	}
	if err := s.Counters.Increment(context.WithoutCancel(ctx), userID); err != nil {
		telemetry.Error("certificate.counter_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func (s *Service) iconSize() image.Point {
	if s.IconSize.X > 0 && s.IconSize.Y > 0 {
		return s.IconSize
	}
	return image.Point{X: 100, Y: 100}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
