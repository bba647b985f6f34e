package ratelimiter_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/ratelimiter"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func byHeader(name string) ratelimiter.KeyFunc {
	return func(r *http.Request) string { return r.Header.Get(name) }
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	b, _ := newBucket(t, ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Minute})
	var denied int
	h := ratelimiter.Middleware(b, byHeader("X-Client"),
		ratelimiter.WithDeniedHandler(func(w http.ResponseWriter, _ *http.Request, res ratelimiter.Result) {
			denied++
			assert.False(t, res.Allowed())
			w.WriteHeader(http.StatusTooManyRequests)
		}),
	)(okHandler())

	call := func(client string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if client != "" {
			r.Header.Set("X-Client", client)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	rec := call("a")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, call("a").Code)

	rec = call("a")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, denied)

	assert.Equal(t, http.StatusOK, call("b").Code)

	// No key, no limit.
	for range 5 {
		assert.Equal(t, http.StatusOK, call("").Code)
	}
}

type brokenStore struct{}

func (brokenStore) Take(context.Context, string, int, ratelimiter.Config, time.Time) (int, time.Time, error) {
	return 0, time.Time{}, ratelimiter.ErrStoreUnavailable
}

func (brokenStore) Reset(context.Context, string) error { return nil }

func TestMiddleware_FailsOpen(t *testing.T) {
	t.Parallel()

	b, err := ratelimiter.NewBucket(brokenStore{}, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second})
	require.NoError(t, err)

	var seen error
	h := ratelimiter.Middleware(b, byHeader("X-Client"),
		ratelimiter.WithErrorHandler(func(_ *http.Request, err error) { seen = err }),
	)(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Client", "a")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, errors.Is(seen, ratelimiter.ErrStoreUnavailable))
}

func TestComposite(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("A", "one")
	r.Header.Set("B", "two")
	r.Header.Set("Long", strings.Repeat("x", 80))

	assert.Equal(t, "one:two", ratelimiter.Composite(byHeader("A"), byHeader("B"))(r))
	assert.Equal(t, "", ratelimiter.Composite(byHeader("A"), byHeader("Missing"), byHeader("B"))(r))
	assert.Equal(t, "", ratelimiter.Composite(byHeader("Missing"))(r))

	hashed := ratelimiter.Composite(byHeader("A"), byHeader("Long"))(r)
	assert.NotEmpty(t, hashed)
	assert.LessOrEqual(t, len(hashed), 13)
	assert.Equal(t, hashed, ratelimiter.Composite(byHeader("A"), byHeader("Long"))(r))
}
