// Package retry holds the reconnect policy of the cipher client and the
// accept guard of the cipher service.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError marks an error that no amount of retrying will fix,
// such as a rejected SSH key.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ── Backoff ──────────────────────────────────────────────────────────

// Backoff retries an operation with exponentially growing pauses.
type Backoff struct {
	// InitialDelay is the pause after the first failure (default 500ms).
	InitialDelay time.Duration
	// MaxDelay caps a single pause (default 10s).
	MaxDelay time.Duration
	// Multiplier grows the pause after each failure (default 2).
	Multiplier float64
	// MaxAttempts counts every try including the first; 0 retries until
	// the context ends.
	MaxAttempts int
	// Jitter spreads each pause by ±25%.
	Jitter bool

	// Retryable classifies errors.  When set, an error it rejects ends
	// the loop as if it had been wrapped with [Permanent].
	Retryable func(error) bool
	// OnRetry runs before each pause.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultBackoff returns the policy used when connecting to a cipher
// service.
func DefaultBackoff() *Backoff {
	return &Backoff{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  4,
		Jitter:       true,
	}
}

// Delay returns the un-jittered pause that follows the given 1-based
// failed attempt.
func (b *Backoff) Delay(attempt int) time.Duration {
	initial, maxDelay, mult := b.params()
	d := float64(initial) * math.Pow(mult, float64(attempt-1))
	if d > float64(maxDelay) || math.IsInf(d, 0) {
		return maxDelay
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, fails permanently, runs out of
// attempts or ctx ends.  The attempt passed to fn is 1-based.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}

		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
		if b.Retryable != nil && !b.Retryable(err) {
			return err
		}
		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		wait := b.Delay(attempt)
		if b.Jitter {
			wait = addJitter(wait)
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

func (b *Backoff) params() (time.Duration, time.Duration, float64) {
	initial := b.InitialDelay
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	mult := b.Multiplier
	if mult <= 0 {
		mult = 2.0
	}
	return initial, maxDelay, mult
}

// addJitter adds ±25% randomisation to a duration.
func addJitter(d time.Duration) time.Duration {
	quarter := float64(d) * 0.25
	delta := (rand.Float64() * 2 * quarter) - quarter
	result := float64(d) + delta
	return time.Duration(math.Max(result, float64(time.Millisecond)))
}
