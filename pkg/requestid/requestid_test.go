package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/pkg/requestid"
)

func TestContext(t *testing.T) {
	t.Parallel()

	ctx := requestid.WithContext(context.Background(), "req-123")
	assert.Equal(t, "req-123", requestid.FromContext(ctx))
	assert.Empty(t, requestid.FromContext(context.Background()))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	capture := func(id *string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*id = requestid.FromContext(r.Context())
		})
	}

	t.Run("accepts well-formed incoming id", func(t *testing.T) {
		t.Parallel()
		var seen string
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(requestid.Header, "client-supplied-42")
		rec := httptest.NewRecorder()
		requestid.Middleware(capture(&seen)).ServeHTTP(rec, req)

		assert.Equal(t, "client-supplied-42", seen)
		assert.Equal(t, "client-supplied-42", rec.Header().Get(requestid.Header))
	})

	t.Run("generates id when absent", func(t *testing.T) {
		t.Parallel()
		var seen string
		rec := httptest.NewRecorder()
		requestid.Middleware(capture(&seen)).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		require.NotEmpty(t, seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(requestid.Header))
	})

	t.Run("replaces malformed incoming id", func(t *testing.T) {
		t.Parallel()
		for _, bad := range []string{"has spaces", "semi;colon", strings.Repeat("a", 200)} {
			var seen string
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set(requestid.Header, bad)
			rec := httptest.NewRecorder()
			requestid.Middleware(capture(&seen)).ServeHTTP(rec, req)

			assert.NotEqual(t, bad, seen)
			_, err := uuid.Parse(seen)
			assert.NoError(t, err, "malformed %q should be replaced with a UUID", bad)
		}
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LoggerExtractor()

	attr, ok := extract(requestid.WithContext(context.Background(), "req-9"))
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "req-9", attr.Value.String())

	_, ok = extract(context.Background())
	assert.False(t, ok)
}
