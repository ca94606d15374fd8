// Package embedding holds the pieces shared by the embedding provider
// adapters: input validation and the mapping of provider failures onto
// domain errors.
package embedding

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// RateLimitError reports an HTTP 429 from a provider.
// It matches both domain.ErrRateLimited and domain.ErrProviderFailure.
type RateLimitError struct {
	Provider string

	// RetryAfter is the server-requested wait, zero when not given.
	RetryAfter time.Duration

	Err error
}

func (e *RateLimitError) Error() string {
	msg := e.Provider + ": rate limited"
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RateLimitError) Unwrap() []error {
	errs := []error{domain.ErrRateLimited, domain.ErrProviderFailure}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// RetryAfter returns the wait requested by a rate-limited provider.
func RetryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter, true
	}
	return 0, false
}

// Failure wraps err as a provider failure.
func Failure(provider string, err error) error {
	return fmt.Errorf("%s: %w: %w", provider, domain.ErrProviderFailure, err)
}

// StatusError maps a non-2xx HTTP response onto a domain error.
func StatusError(provider string, status int, body string, retryAfter time.Duration) error {
	cause := fmt.Errorf("status %d: %s", status, strings.TrimSpace(body))
	if status == http.StatusTooManyRequests {
		return &RateLimitError{Provider: provider, RetryAfter: retryAfter, Err: cause}
	}
	return Failure(provider, cause)
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an
// HTTP date. Unparseable values yield zero.
func ParseRetryAfter(header string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// ValidateTexts rejects an empty batch or any blank text.
func ValidateTexts(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts", domain.ErrEmptyInput)
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w: text %d is blank", domain.ErrEmptyInput, i)
		}
	}
	return nil
}

// ToFloat32 narrows a provider vector.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
