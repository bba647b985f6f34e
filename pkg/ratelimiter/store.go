package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket state. Take refills the bucket for the time elapsed
// since the last refill, then removes tokens if enough are left. When they
// are not, nothing is removed and remaining is the negative shortfall.
type Store interface {
	Take(ctx context.Context, key string, tokens int, cfg Config, now time.Time) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

// refill applies the token bucket arithmetic shared by the stores.
func refill(tokens int, lastRefill, now time.Time, cfg Config) (int, time.Time) {
	if now.Before(lastRefill) {
		return tokens, lastRefill
	}
	maxIntervals := int64(cfg.Capacity/cfg.RefillRate + 1)
	intervals := min(int64(now.Sub(lastRefill)/cfg.RefillInterval), maxIntervals)
	if intervals <= 0 {
		return tokens, lastRefill
	}
	tokens = min(tokens+int(intervals)*cfg.RefillRate, cfg.Capacity)
	return tokens, lastRefill.Add(time.Duration(intervals) * cfg.RefillInterval)
}
