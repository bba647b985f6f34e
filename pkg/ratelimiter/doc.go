// Package ratelimiter implements token bucket rate limiting.
//
// A Bucket holds at most Capacity tokens and gains RefillRate tokens every
// RefillInterval. Each allowed request takes one token; a request that
// finds the bucket short is denied without consuming anything.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       30,
//		RefillRate:     1,
//		RefillInterval: 2 * time.Second,
//	})
//
// MemoryStore keeps state per process. RedisStore keeps it in Redis behind
// a Lua script, so every instance of a service shares the same buckets.
//
// # HTTP
//
// Middleware limits requests by a KeyFunc and sets the X-RateLimit-* and
// Retry-After headers:
//
//	r.With(ratelimiter.Middleware(bucket, keyByIP,
//		ratelimiter.WithDeniedHandler(renderTooManyRequests),
//	)).Get("/v1/trials/{code}", h.getTrial)
//
// A failing store never blocks traffic: the request is served and the
// error is passed to WithErrorHandler.
package ratelimiter
