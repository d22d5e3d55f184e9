// Package retrylimit provides an adaptive rate limiter and a retry loop with
// exponential backoff for talking to rate-limited HTTP APIs.
//
//	lim := retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5)
//	err := retrylimit.Do(ctx, lim, retrylimit.DefaultConfig(), func() error {
//	    return createCommand()
//	})
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// =============================================================================
// Limiter
// =============================================================================

// AdaptiveLimiter raises its rate on success and cuts it on rate-limit or
// server errors. Safe for concurrent use.
type AdaptiveLimiter struct {
	mu        sync.RWMutex
	limiter   *rate.Limiter
	minLimit  rate.Limit
	maxLimit  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	cooldown  time.Duration
	lastError time.Time
}

// NewAdaptiveLimiter creates a limiter starting at initial requests per second,
// bounded by [lo, hi], growing by stepUp on success and multiplied by stepDown
// on failure.
func NewAdaptiveLimiter(initial, lo, hi, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	initial = clamp(initial, lo, hi)
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, max(1, int(initial))),
		minLimit: lo,
		maxLimit: hi,
		stepUp:   stepUp,
		stepDown: stepDown,
		cooldown: 10 * time.Second,
	}
}

// Wait blocks until a token is available or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success raises the rate, unless a failure happened within the cooldown.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.lastError) > a.cooldown {
		a.setLimit(a.limiter.Limit() + a.stepUp)
	}
}

// RateLimited lowers the rate after an overload signal.
func (a *AdaptiveLimiter) RateLimited() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = time.Now()
	a.setLimit(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// CurrentLimit returns the current requests per second.
func (a *AdaptiveLimiter) CurrentLimit() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) setLimit(l rate.Limit) {
	l = clamp(l, a.minLimit, a.maxLimit)
	if l != a.limiter.Limit() {
		a.limiter.SetLimit(l)
		a.limiter.SetBurst(max(1, int(l)))
	}
}

func clamp(l, lo, hi rate.Limit) rate.Limit {
	if l > hi {
		return hi
	}
	if l < lo {
		return lo
	}
	return l
}

// =============================================================================
// Errors
// =============================================================================

// HTTPError is implemented by errors that carry an HTTP status code.
type HTTPError interface {
	error
	StatusCode() int
}

// FatalError stops the retry loop immediately.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// Fatal marks err as not worth retrying.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// StatusFunc extracts an HTTP status code from err; 0 means unknown.
type StatusFunc func(error) int

// DefaultStatus reads the status from any HTTPError in err's chain.
func DefaultStatus(err error) int {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}
	return 0
}

// =============================================================================
// Retry
// =============================================================================

type Config struct {
	MaxAttempts    int           // 0 means 100
	InitialDelay   time.Duration // first backoff
	MaxDelay       time.Duration // backoff cap
	RateLimitDelay time.Duration // fixed pause after a 429
	Multiplier     float64       // backoff growth
	Jitter         bool          // add up to 25% random delay
	Status         StatusFunc    // nil means DefaultStatus
	OnRetry        func(attempt int, err error)
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    5,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		RateLimitDelay: time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// ErrMaxAttempts wraps the last error once all attempts are used up.
var ErrMaxAttempts = errors.New("max attempts exceeded")

// Do runs fn until it succeeds, returns a FatalError, ctx ends or attempts
// run out. lim may be nil. 4xx responses other than 429 are not retried.
func Do(ctx context.Context, lim *AdaptiveLimiter, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 100
	}
	if cfg.Status == nil {
		cfg.Status = DefaultStatus
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn()
		if err == nil {
			if lim != nil {
				lim.Success()
			}
			if attempt > 1 {
				log.Debug().Int("attempt", attempt).Msg("retry succeeded")
			}
			return nil
		}
		lastErr = err

		var fatal *FatalError
		if errors.As(err, &fatal) {
			return fatal.Err
		}

		status := cfg.Status(err)
		if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			return err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		wait := delay
		switch {
		case status == http.StatusTooManyRequests:
			if lim != nil {
				lim.RateLimited()
			}
			wait = cfg.RateLimitDelay
			log.Warn().Int("attempt", attempt).Msg("rate limited, backing off")
		case status >= 500:
			if lim != nil {
				lim.RateLimited()
			}
			log.Warn().Err(err).Int("attempt", attempt).Dur("delay", wait).Msg("server error, retrying")
		default:
			log.Warn().Err(err).Int("attempt", attempt).Dur("delay", wait).Msg("request failed, retrying")
		}
		if cfg.Jitter {
			wait = addJitter(wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if status != http.StatusTooManyRequests {
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return fmt.Errorf("%w (%d): %w", ErrMaxAttempts, cfg.MaxAttempts, lastErr)
}

func addJitter(d time.Duration) time.Duration {
	if d < 4 {
		return d
	}
	return d + time.Duration(rand.Int64N(int64(d/4)))
}
