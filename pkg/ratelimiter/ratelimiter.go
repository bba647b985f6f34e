package ratelimiter

import (
	"context"
	"time"
)

// Bucket is a token bucket limiter over a Store.
type Bucket struct {
	store Store
	cfg   Config
	clock func() time.Time
}

// Option configures a Bucket.
type Option func(*Bucket)

// WithClock replaces time.Now. Nil is ignored.
func WithClock(now func() time.Time) Option {
	return func(b *Bucket) {
		if now != nil {
			b.clock = now
		}
	}
}

// NewBucket validates cfg and returns a Bucket. Panics if store is nil.
func NewBucket(store Store, cfg Config, opts ...Option) (*Bucket, error) {
	if store == nil {
		panic("ratelimiter: Store is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	b := &Bucket{store: store, cfg: cfg, clock: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Bucket) Allow(ctx context.Context, key string) (Result, error) {
	return b.AllowN(ctx, key, 1)
}

func (b *Bucket) AllowN(ctx context.Context, key string, n int) (Result, error) {
	if n <= 0 {
		return Result{}, errorf(ErrInvalidTokenCount, "must be positive, got %d", n)
	}
	return b.take(ctx, key, n)
}

// Status reports the bucket without consuming tokens.
func (b *Bucket) Status(ctx context.Context, key string) (Result, error) {
	return b.take(ctx, key, 0)
}

func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}

func (b *Bucket) take(ctx context.Context, key string, n int) (Result, error) {
	remaining, resetAt, err := b.store.Take(ctx, key, n, b.cfg, b.clock())
	if err != nil {
		return Result{}, err
	}
	return Result{Limit: b.cfg.Capacity, Remaining: remaining, ResetAt: resetAt}, nil
}
