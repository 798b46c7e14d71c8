package verify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"certificate-backend/internal/shared/metrics"
	"certificate-backend/internal/shared/telemetry"
)

// ErrServerVerification is the user-visible error string carried in a
// degraded result. It never aborts the pipeline.
const ErrServerVerification = "server verification error"

// ErrVerificationTimeout marks a poll that exceeded the configured ceiling.
const ErrVerificationTimeout = "verification timed out"

// RetryPolicy bounds dispatch retries with a linear-step backoff.
type RetryPolicy struct {
	MaxAttempts   int
	StartInterval time.Duration
	StepInterval  time.Duration
	MaxInterval   time.Duration
}

// DefaultRetryPolicy mirrors the verifier queue's contract: up to 10
// attempts, 1s start, 1s step, capped at 20s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   10,
		StartInterval: time.Second,
		StepInterval:  time.Second,
		MaxInterval:   20 * time.Second,
	}
}

// interval returns the backoff before the given 1-based retry attempt.
func (p RetryPolicy) interval(attempt int) time.Duration {
	d := p.StartInterval + time.Duration(attempt-1)*p.StepInterval
	if p.MaxInterval > 0 && d > p.MaxInterval {
		d = p.MaxInterval
	}
	return d
}

// Client submits verification requests and polls for terminal results.
type Client struct {
	Broker       Broker
	Retry        RetryPolicy
	PollInterval time.Duration
	PollTimeout  time.Duration

	// sleep and now are swapped in tests to avoid real waiting.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewClient builds a verification client around a broker.
func NewClient(broker Broker, retry RetryPolicy, pollInterval, pollTimeout time.Duration) *Client {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Client{
		Broker:       broker,
		Retry:        retry,
		PollInterval: pollInterval,
		PollTimeout:  pollTimeout,
		sleep:        sleepCtx,
		now:          time.Now,
	}
}

// Verify dispatches the request and polls until the task reaches a terminal
// state, the poll ceiling elapses, or ctx is cancelled. It never returns an
// error: degraded outcomes are encoded in the Result so the pipeline can
// continue.
func (c *Client) Verify(ctx context.Context, req Request) Result {
	taskID := uuid.NewString()
	started := time.Now()

	telemetry.Info("verify.dispatch", map[string]any{
		"task_id": taskID,
		"user_id": req.UserID,
		"title":   req.Title,
		"url":     req.URL,
	})

	if err := c.dispatch(ctx, taskID, req); err != nil {
		telemetry.Error("verify.dispatch_failed", map[string]any{
			"task_id": taskID,
			"user_id": req.UserID,
			"error":   err.Error(),
		})
		return Result{Verified: false, Error: ErrServerVerification}
	}

	res := c.poll(ctx, taskID, req.UserID)
	metrics.VerificationDuration.Observe(time.Since(started).Seconds())
	return res
}

func (c *Client) dispatch(ctx context.Context, taskID string, req Request) error {
	policy := c.Retry
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}

	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err = c.Broker.Dispatch(ctx, taskID, req)
		if err == nil {
			return nil
		}
		if attempt == policy.MaxAttempts {
			break
		}
		if serr := c.wait(ctx, policy.interval(attempt)); serr != nil {
			return serr
		}
	}
	return err
}

func (c *Client) poll(ctx context.Context, taskID, userID string) Result {
	clock := c.now
	if clock == nil {
		clock = time.Now
	}
	var deadline time.Time
	if c.PollTimeout > 0 {
		deadline = clock().Add(c.PollTimeout)
	}

	for {
		state, payload, err := c.Broker.Result(ctx, taskID)
		if err != nil {
			telemetry.Error("verify.poll_error", map[string]any{
				"task_id": taskID,
				"user_id": userID,
				"error":   err.Error(),
			})
			return Result{Verified: false, Error: ErrServerVerification}
		}

		switch state {
		case TaskSuccess:
			var res Result
			if err := json.Unmarshal(payload, &res); err != nil {
				telemetry.Error("verify.result_decode_failed", map[string]any{
					"task_id": taskID,
					"user_id": userID,
					"error":   err.Error(),
				})
				return Result{Verified: false, Error: ErrServerVerification}
			}
			telemetry.Info("verify.result", map[string]any{
				"task_id":  taskID,
				"user_id":  userID,
				"verified": res.Verified,
				"skills":   len(res.Skills),
			})
			return res
		case TaskFailure:
			telemetry.Error("verify.task_failed", map[string]any{
				"task_id": taskID,
				"user_id": userID,
			})
			return Result{Verified: false, Error: ErrServerVerification}
		}

		if !deadline.IsZero() && !clock().Before(deadline) {
			metrics.VerificationTimeouts.Inc()
			telemetry.Error("verify.poll_timeout", map[string]any{
				"task_id": taskID,
				"user_id": userID,
				"timeout": c.PollTimeout.String(),
			})
			return Result{Verified: false, Error: ErrVerificationTimeout, TimedOut: true}
		}

		if err := c.wait(ctx, c.PollInterval); err != nil {
			telemetry.Warn("verify.poll_cancelled", map[string]any{
				"task_id": taskID,
				"user_id": userID,
			})
			return Result{Verified: false, Error: ErrVerificationTimeout, TimedOut: true}
		}
	}
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		return c.sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
