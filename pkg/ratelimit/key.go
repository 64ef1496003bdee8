package ratelimit

import (
	"hash/fnv"
	"net/http"
	"strconv"

	"github.com/opsdeck/opsdeck/pkg/clientip"
	"github.com/opsdeck/opsdeck/pkg/tenantctx"
)

// maxKeyLength bounds stored key size; longer composites are hashed.
const maxKeyLength = 64

// KeyFunc extracts a rate limit identity key from the request.
type KeyFunc func(r *http.Request) string

// ByUser keys the limit on the authenticated user's ID.
// Returns empty for unauthenticated requests so a fallback can apply.
func ByUser() KeyFunc {
	return func(r *http.Request) string {
		tc, ok := tenantctx.FromContext(r.Context())
		if !ok || !tc.Authenticated() {
			return ""
		}
		return tc.UserID.String()
	}
}

// ByClientIP keys the limit on the caller's IP, for public endpoints.
func ByClientIP() KeyFunc {
	return func(r *http.Request) string {
		return clientip.Get(r)
	}
}

// Key composes an operation name with identity key funcs into
// "{operation}:{identity}". The first non-empty identity wins; composites
// longer than 64 characters are FNV-1a hashed for storage efficiency.
func Key(operation string, identities ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		identity := ""
		for _, fn := range identities {
			if id := fn(r); id != "" {
				identity = id
				break
			}
		}
		if identity == "" {
			return ""
		}

		combined := operation + ":" + identity
		if len(combined) > maxKeyLength {
			h := fnv.New64a()
			h.Write([]byte(combined))
			return operation + ":" + strconv.FormatUint(h.Sum64(), 36)
		}
		return combined
	}
}
