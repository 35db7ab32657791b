// Package ratelimit provides fixed-window request counters keyed by bucket
// name and caller key. Limiting is advisory: store failures let the request
// through.
package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Result is the state of a counter after one hit.
type Result struct {
	Limited bool
	Count   int64
	ResetAt time.Time
}

// RetryAfter is the time left until the window rolls over, never negative.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Store counts one hit against key in a fixed window and returns the new
// count together with the window deadline.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Rule caps a bucket at Max requests per Window.
type Rule struct {
	Bucket string
	Max    int
	Window time.Duration
}

// Limiter applies per-bucket caps over a Store.
type Limiter struct {
	store Store
	log   *zap.Logger
}

func New(store Store, log *zap.Logger) *Limiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Limiter{store: store, log: log}
}

// Check records one request for (bucket, key) and reports whether it exceeds
// max within window.
func (l *Limiter) Check(ctx context.Context, bucket, key string, max int, window time.Duration) Result {
	count, resetAt, err := l.store.Hit(ctx, bucket+":"+key, window)
	if err != nil {
		l.log.Warn("rate limit store unavailable, allowing request",
			zap.String("bucket", bucket), zap.Error(err))
		return Result{}
	}
	return Result{Limited: count > int64(max), Count: count, ResetAt: resetAt}
}

// Apply is Check with the limits taken from rule.
func (l *Limiter) Apply(ctx context.Context, rule Rule, key string) Result {
	return l.Check(ctx, rule.Bucket, key, rule.Max, rule.Window)
}
