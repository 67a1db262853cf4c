package duplicates

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// DefaultDelay is the fixed pause inserted between candidate closures when no
// other pacing policy is configured. Simple rate-limit mitigation; there is
// no retry and no exponential growth by default.
const DefaultDelay = 500 * time.Millisecond

// Pacer paces the duplicate-closing loop. Pause is called between candidates,
// never before the first one.
type Pacer interface {
	Pause(ctx context.Context) error
}

// FixedPacer waits a constant interval.
type FixedPacer struct {
	Interval time.Duration
}

// Pause waits for the interval or until the context is done.
func (p FixedPacer) Pause(ctx context.Context) error {
	if p.Interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BackoffPacer paces candidates using a backoff.BackOff policy, for callers
// that want growing gaps instead of a constant one.
type BackoffPacer struct {
	Policy backoff.BackOff
}

// Pause waits for the policy's next interval.
func (p BackoffPacer) Pause(ctx context.Context) error {
	d := p.Policy.NextBackOff()
	if d == backoff.Stop {
		return fmt.Errorf("backoff policy exhausted")
	}
	return FixedPacer{Interval: d}.Pause(ctx)
}

// LimiterPacer paces candidates through a shared rate limiter, useful when
// several sweeps run in the same process against one API quota.
type LimiterPacer struct {
	Limiter *rate.Limiter
}

// Pause blocks until the limiter grants a token.
func (p LimiterPacer) Pause(ctx context.Context) error {
	return p.Limiter.Wait(ctx)
}
