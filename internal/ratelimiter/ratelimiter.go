package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles filesystem operations with a token bucket.
//
// A nil *RateLimiter is valid and never throttles, so callers can hold an
// optional limiter without branching at every call site.
//
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing opsPerSecond sustained operations with
// bursts of up to burst. opsPerSecond == 0 disables limiting and returns nil.
// A zero burst defaults to opsPerSecond.
func New(opsPerSecond, burst uint) *RateLimiter {
	if opsPerSecond == 0 {
		return nil
	}
	if burst == 0 {
		burst = opsPerSecond
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(opsPerSecond), int(burst)),
	}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return ctx.Err()
	}
	return r.limiter.Wait(ctx)
}

// Allow consumes a token if one is available without waiting.
func (r *RateLimiter) Allow() bool {
	if r == nil {
		return true
	}
	return r.limiter.Allow()
}

// SetLimit changes the sustained rate. The burst is kept.
func (r *RateLimiter) SetLimit(opsPerSecond uint) {
	if r == nil {
		return
	}
	r.limiter.SetLimit(rate.Limit(opsPerSecond))
}

// Tokens reports the tokens currently in the bucket, for monitoring.
func (r *RateLimiter) Tokens() float64 {
	if r == nil {
		return 0
	}
	return r.limiter.Tokens()
}
