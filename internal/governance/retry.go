package governance

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pulsefit/gateway/pkg/domain"
)

// RetryPolicy bounds a retry sequence around one downstream call site.
// Immutable once constructed.
type RetryPolicy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt; subsequent waits
	// grow by Multiplier per attempt, capped at MaxDelay.
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// Jitter adds up to 25% randomness to each wait.
	Jitter bool
}

// DefaultRetryPolicy returns three attempts with 100ms exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
	}
}

// Retryer executes operations under a RetryPolicy.
type Retryer struct {
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
	// OnRetry, when set, observes each wait before a re-attempt.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NewRetryer creates a Retryer, normalizing zero policy fields to defaults.
func NewRetryer(policy RetryPolicy) *Retryer {
	def := DefaultRetryPolicy()
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = def.BaseDelay
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = def.MaxDelay
	}
	if policy.Multiplier <= 1 {
		policy.Multiplier = def.Multiplier
	}
	return &Retryer{policy: policy, sleep: sleepContext}
}

// Policy returns a copy of the effective policy.
func (r *Retryer) Policy() RetryPolicy { return r.policy }

// Do invokes fn up to MaxAttempts times. Client-caused failures (validation,
// limit, rate errors) are returned immediately and never retried; any other
// failure is retried after an exponential wait. When attempts are exhausted
// the last error propagates unchanged. Operations must be idempotent or
// otherwise safe to repeat.
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if domain.IsClientError(lastErr) {
			return lastErr
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.backoff(attempt)
		if r.OnRetry != nil {
			r.OnRetry(attempt, delay, lastErr)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// backoff computes the wait after the given attempt number (1-based):
// BaseDelay * Multiplier^(attempt-1), capped at MaxDelay.
func (r *Retryer) backoff(attempt int) time.Duration {
	d := time.Duration(float64(r.policy.BaseDelay) * math.Pow(r.policy.Multiplier, float64(attempt-1)))
	if d > r.policy.MaxDelay {
		d = r.policy.MaxDelay
	}
	if r.policy.Jitter && d > 0 {
		// #nosec G404 - non-cryptographic randomness is fine for jitter
		d += time.Duration(rand.Int63n(int64(d / 4)))
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
