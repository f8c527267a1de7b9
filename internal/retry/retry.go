// Package retry runs remote operations under a bounded exponential backoff
// policy. Transient failures are absorbed and retried; permanent failures
// and exhaustion return the operation's own error unchanged, so callers can
// still classify it with errors.Is.
package retry

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Default policy values, shared by every remote operation.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxDelay    = 30 * time.Second
	DefaultMultiplier  = 2.0
)

// Policy describes how often and how patiently to retry. A Policy is a
// value and is safe to share between goroutines.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64

	// Retryable classifies an error as transient. Nil means nothing is
	// retried.
	Retryable func(error) bool
}

// DefaultPolicy returns the standard policy with the given classifier.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Multiplier:  DefaultMultiplier,
		Retryable:   retryable,
	}
}

// Delay returns the wait before the retry that follows the given failed
// attempt (1-based): min(BaseDelay * Multiplier^(attempt-1), MaxDelay).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}

	d := float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}

	return time.Duration(d)
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}

	return p.MaxAttempts
}

// Executor applies a Policy. The zero value is not usable; use New.
type Executor struct {
	logger *slog.Logger

	// sleepFunc waits between attempts. Tests override this to avoid real
	// delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// New creates an Executor that logs each retry to logger.
func New(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		logger:    logger,
		sleepFunc: Sleep,
	}
}

// WithSleep returns a copy of e that waits with fn instead of a timer.
func (e *Executor) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Executor {
	cp := *e
	cp.sleepFunc = fn

	return &cp
}

// Do runs op under policy and returns its result. op is called at most
// policy.MaxAttempts times. The final error is returned exactly as op
// produced it. A canceled context stops retrying and returns the most
// recent operation error.
func Do[T any](ctx context.Context, e *Executor, policy Policy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	maxAttempts := policy.attempts()

	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				e.logger.Debug("operation succeeded after retry",
					slog.String("op", name),
					slog.Int("attempts", attempt),
				)
			}

			return v, nil
		}

		if ctx.Err() != nil || policy.Retryable == nil || !policy.Retryable(err) {
			return v, err
		}

		if attempt >= maxAttempts {
			e.logger.Error("operation failed after retries",
				slog.String("op", name),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()),
			)

			return v, err
		}

		delay := policy.Delay(attempt)
		e.logger.Warn("retrying after transient error",
			slog.String("op", name),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		if sleepErr := e.sleepFunc(ctx, delay); sleepErr != nil {
			return v, err
		}
	}
}

// Exec is Do for operations without a result value.
func Exec(ctx context.Context, e *Executor, policy Policy, name string, op func(ctx context.Context) error) error {
	_, err := Do(ctx, e, policy, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})

	return err
}

// Sleep waits for d or until ctx is canceled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
