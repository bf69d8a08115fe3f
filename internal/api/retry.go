package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lamim/promptlab/internal/config"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt
	DefaultMaxRetries = 2
	// DefaultBaseRetryDelay is the linear backoff step
	DefaultBaseRetryDelay = 1500 * time.Millisecond
)

// RetryPolicy bounds the attempts made by Retry
type RetryPolicy struct {
	MaxRetries  int                  // Retries after the first attempt; 0 means a single attempt
	BaseDelay   time.Duration        // Delay before retry n is BaseDelay * n
	IsRetryable func(err error) bool // nil retries every error
	OnRetry     func(attempt int)    // Optional hook called before each retry
	Name        string               // Call name used in logs
}

// DefaultRetryPolicy returns the policy used when nothing is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  DefaultMaxRetries,
		BaseDelay:   DefaultBaseRetryDelay,
		IsRetryable: IsRetryable,
	}
}

// ConfiguredRetryPolicy starts from DefaultRetryPolicy and applies the
// configured retry count and delay for the named call
func ConfiguredRetryPolicy(name string, cfg config.RetryConfig, onRetry func(attempt int)) RetryPolicy {
	p := DefaultRetryPolicy()
	p.MaxRetries = cfg.MaxRetries
	p.BaseDelay = time.Duration(cfg.BaseDelayMS) * time.Millisecond
	p.OnRetry = onRetry
	p.Name = name
	return p
}

// Retry runs op until it succeeds or the policy is exhausted, sleeping
// BaseDelay*attempt between attempts. The last error is returned when every
// attempt fails; a cancelled ctx stops the wait.
func Retry[T any](ctx context.Context, policy RetryPolicy, logger *slog.Logger, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := policy.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := policy.BaseDelay * time.Duration(attempt)
			if logger != nil {
				logger.Warn("Retrying model call",
					"call", policy.Name,
					"attempt", attempt,
					"max_retries", policy.MaxRetries,
					"backoff", delay,
					"error", lastErr)
			}
			if policy.OnRetry != nil {
				policy.OnRetry(attempt)
			}

			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if policy.IsRetryable != nil && !policy.IsRetryable(err) {
			return zero, err
		}
	}

	return zero, lastErr
}
