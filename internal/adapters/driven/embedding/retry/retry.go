// Package retry runs embedding calls under an explicit retry policy and a
// request rate limit.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/embedding"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Policy bounds how a failing call is retried.
type Policy struct {
	// MaxAttempts counts the first call. Values below 1 mean 1.
	MaxAttempts int

	// BaseDelay is the wait after the first failure.
	BaseDelay time.Duration

	// MaxDelay caps a single wait, including server-requested waits.
	MaxDelay time.Duration

	// Multiplier grows the wait after each failure. Values below 1 mean 1.
	Multiplier float64

	// Budget bounds the whole call including waits. Zero means no bound.
	Budget time.Duration
}

// DefaultPolicy returns the policy used for embedding providers.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Multiplier:  2,
		Budget:      90 * time.Second,
	}
}

// Delay returns the backoff before attempt+1, where attempt counts from 1.
func (p Policy) Delay(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Retryable reports whether err is worth another attempt: provider
// failures and rate limits are, empty input and cancellation are not.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, domain.ErrEmptyInput), errors.Is(err, domain.ErrInvalidInput):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return errors.Is(err, domain.ErrProviderFailure) || errors.Is(err, domain.ErrRateLimited)
}

// Do calls op until it succeeds, returns a non-retryable error, runs out of
// attempts or exhausts the budget. The last error is returned wrapped with
// the number of attempts made.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	if p.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Budget)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !Retryable(err) {
			if attempt == 1 {
				return zero, err
			}
			return zero, fmt.Errorf("after %d attempts: %w", attempt, err)
		}
		if attempt == attempts {
			break
		}

		wait := p.Delay(attempt)
		if requested, ok := embedding.RetryAfter(err); ok && requested > wait {
			wait = requested
			if p.MaxDelay > 0 && wait > p.MaxDelay {
				wait = p.MaxDelay
			}
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			return zero, fmt.Errorf("after %d attempts (budget exhausted): %w", attempt, err)
		}

		logger.Warn("retry: attempt %d/%d failed: %v; waiting %s", attempt, attempts, err, wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("after %d attempts: %w", attempt, errors.Join(err, ctx.Err()))
		case <-timer.C:
		}
	}

	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
