package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/pkg/ratelimit"
)

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, ratelimit.ErrStoreUnavailable
}

func staticKey(key string) ratelimit.KeyFunc {
	return func(r *http.Request) string { return key }
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("allows within budget and sets headers", func(t *testing.T) {
		t.Parallel()
		l := newLimiter(t, 2, time.Hour)
		h := ratelimit.Middleware(l, staticKey("k"), nil)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("denies beyond budget with 429 and Retry-After", func(t *testing.T) {
		t.Parallel()
		l := newLimiter(t, 1, time.Hour)
		h := ratelimit.Middleware(l, staticKey("k"), nil)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"error":"rate_limited","message":"rate limit exceeded"}`, rec.Body.String())
	})

	t.Run("no derivable key shares the fallback bucket", func(t *testing.T) {
		t.Parallel()
		l := newLimiter(t, 1, time.Hour)
		h := ratelimit.Middleware(l, staticKey(""), nil)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

		// A second unidentified request lands in the same bucket.
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("store outage responds 500, never allows", func(t *testing.T) {
		t.Parallel()
		l, err := ratelimit.New(failingStore{}, ratelimit.Config{Limit: 1, Window: time.Hour})
		require.NoError(t, err)
		h := ratelimit.Middleware(l, staticKey("k"), nil)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
