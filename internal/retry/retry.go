// Package retry runs remote calls under an exponential backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/ragsync/internal/logger"
)

// Defaults used by the indexer for store and embedding calls.
const (
	DefaultMaxAttempts   = 3
	DefaultBackoffFactor = 2
)

// ErrInvalidMaxAttempts is returned when a policy allows no attempts.
var ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy describes how many times an operation is attempted and how long
// to wait between attempts.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BackoffFactor is the base of the exponential wait.
	// The wait after failed attempt n (0-based) is BackoffFactor^n seconds.
	BackoffFactor float64

	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep SleepFunc
}

// DefaultPolicy returns 3 attempts with a backoff factor of 2.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   DefaultMaxAttempts,
		BackoffFactor: DefaultBackoffFactor,
	}
}

// Backoff returns the wait after the given 0-based failed attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	secs := math.Pow(p.BackoffFactor, float64(attempt))
	return time.Duration(secs * float64(time.Second))
}

// Do runs op until it succeeds, the attempts are exhausted, or ctx is done.
// name identifies the operation in debug logs.
func (p Policy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = timerSleep
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			if attempt > 0 {
				logger.Debug("%s succeeded on attempt %d", name, attempt+1)
			}
			return nil
		}

		if attempt == p.MaxAttempts-1 {
			break
		}

		wait := p.Backoff(attempt)
		logger.Debug("%s: retry %d/%d after %s: %v", name, attempt+1, p.MaxAttempts, wait, lastErr)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, lastErr)
}

// Value runs op under the policy and returns its result.
func Value[T any](ctx context.Context, p Policy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, name, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func timerSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
