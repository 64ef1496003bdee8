package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/opsdeck/opsdeck/pkg/httperr"
)

// fallbackKey is the shared bucket for requests with no derivable
// identity. It keeps the limiter closed by construction: no request is
// ever exempt from the budget.
const fallbackKey = "unidentified"

// Middleware applies the limiter to every request routed through it,
// emitting standard X-RateLimit-* headers. Requests with no derivable
// identity key share one fallback bucket rather than passing through
// unlimited.
func Middleware(limiter *Limiter, keyFunc KeyFunc, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				key = fallbackKey
			}

			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				// Store outage is a server failure, never an allow.
				httperr.Respond(r.Context(), w, log, httperr.Wrap(httperr.KindInternal, "rate limit check failed", err))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				if retryAfter := int(res.RetryAfter().Seconds()); retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				httperr.Respond(r.Context(), w, log, httperr.New(httperr.KindRateLimited, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
