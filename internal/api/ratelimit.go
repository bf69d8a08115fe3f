package api

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lamim/promptlab/internal/config"
	"golang.org/x/time/rate"
)

// minBurst keeps low-rpm endpoints from serializing every request
const minBurst = 5

type limiterEntry struct {
	limiter *rate.Limiter
	rpm     int
}

// Limiters hands out one token bucket per provider and model. Generation and
// judge calls against the same model draw from the same bucket.
type Limiters struct {
	mu      sync.Mutex
	entries map[string]limiterEntry
	logger  *slog.Logger
}

// NewLimiters creates an empty limiter set
func NewLimiters(logger *slog.Logger) *Limiters {
	return &Limiters{
		entries: make(map[string]limiterEntry),
		logger:  logger,
	}
}

func limiterKey(model config.ModelConfig) string {
	return config.GetProviderName(model.BaseURL) + "|" + model.ModelName
}

// burstFor allows a fifth of the per-minute budget at once
func burstFor(rpm int) int {
	return max(minBurst, rpm/5)
}

// For returns the bucket of model, creating it on first use. The first
// configured rate wins when two configs name the same model.
func (l *Limiters) For(model config.ModelConfig) *rate.Limiter {
	key := limiterKey(model)

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok {
		if e.rpm != model.RateLimitPerMinute {
			l.logger.Warn("Model already has a limiter with a different rate",
				"model", model.ModelName,
				"existing_rpm", e.rpm,
				"requested_rpm", model.RateLimitPerMinute)
		}
		return e.limiter
	}

	e := limiterEntry{
		limiter: rate.NewLimiter(rate.Limit(float64(model.RateLimitPerMinute)/60), burstFor(model.RateLimitPerMinute)),
		rpm:     model.RateLimitPerMinute,
	}
	l.entries[key] = e
	l.logger.Debug("Created rate limiter", "provider", config.GetProviderName(model.BaseURL), "model", model.ModelName, "rpm", e.rpm, "burst", e.limiter.Burst())
	return e.limiter
}

// Wait blocks until model may send another request. A non-positive rate
// disables limiting.
func (l *Limiters) Wait(ctx context.Context, model config.ModelConfig) error {
	if model.RateLimitPerMinute <= 0 {
		return nil
	}
	return l.For(model).Wait(ctx)
}
