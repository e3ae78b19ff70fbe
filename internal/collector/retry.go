package collector

import (
	"context"
	"math"
	"time"

	"cryptocollector/config"
	"cryptocollector/internal/model"
)

// RetryPolicy bounds how a failed gateway call is repeated: exponential
// backoff starting at BaseDelay, multiplied per attempt, capped at
// MaxDelay. Rate-limit rejections never wait less than RateLimitDelay.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	RateLimitDelay time.Duration
}

// PolicyFromConfig maps the retry section of the config onto a policy.
func PolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		BaseDelay:      cfg.BaseDelay,
		MaxDelay:       cfg.MaxDelay,
		Multiplier:     cfg.Multiplier,
		RateLimitDelay: cfg.RateLimitDelay,
	}
}

// Delay returns the wait before the retry following the given attempt
// (attempts count from 1).
func (p RetryPolicy) Delay(attempt int, rateLimited bool) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1)))
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if rateLimited && d < p.RateLimitDelay {
		d = p.RateLimitDelay
	}
	return d
}

// Do runs op until it succeeds, fails permanently, or MaxAttempts is
// reached. It returns the number of attempts made together with the last
// error. Retry bounds and backoff are decided here and nowhere else, so
// they can be tested without a network.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) (int, error) {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return attempt, nil
		}
		if !model.Retryable(err) {
			return attempt, err
		}
		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-time.After(p.Delay(attempt, model.RateLimited(err))):
		case <-ctx.Done():
			return attempt, err
		}
	}
	return p.MaxAttempts, err
}
