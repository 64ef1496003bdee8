package tenantctx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/pkg/jwt"
	"github.com/opsdeck/opsdeck/pkg/tenantctx"
)

func signedToken(t *testing.T, svc *jwt.Service, userID uuid.UUID, superAdmin bool) string {
	t.Helper()
	token, err := svc.Sign(tenantctx.TokenClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID.String(),
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
		SuperAdmin: superAdmin,
	})
	require.NoError(t, err)
	return token
}

// captureHandler records the tenant context observed inside the handler.
func captureHandler(captured *tenantctx.Context, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenantctx.FromContext(r.Context())
		*captured = tc
		*found = ok
		w.WriteHeader(http.StatusOK)
	})
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("test-signing-key-test-signing-key")
	require.NoError(t, err)
	auth := tenantctx.NewJWTAuthenticator(svc)

	userID := uuid.New()
	tenantID := uuid.New()
	memberships := tenantctx.StaticMemberships{
		userID: {TenantID: tenantID, Role: "ADMIN"},
	}

	t.Run("binds context for valid token", func(t *testing.T) {
		t.Parallel()
		var captured tenantctx.Context
		var found bool
		h := tenantctx.Middleware(auth, memberships)(captureHandler(&captured, &found))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, svc, userID, false))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, found)
		assert.Equal(t, tenantID, captured.TenantID)
		assert.Equal(t, userID, captured.UserID)
		assert.Equal(t, "ADMIN", captured.Role)
		assert.False(t, captured.IsSuperAdmin)
	})

	t.Run("missing token responds 401", func(t *testing.T) {
		t.Parallel()
		var captured tenantctx.Context
		var found bool
		h := tenantctx.Middleware(auth, memberships)(captureHandler(&captured, &found))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, found)
		assert.Equal(t, "unauthenticated", errorBody(t, rec)["error"])
	})

	t.Run("garbage token responds 401", func(t *testing.T) {
		t.Parallel()
		h := tenantctx.Middleware(auth, memberships)(http.NotFoundHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered token responds 401", func(t *testing.T) {
		t.Parallel()
		h := tenantctx.Middleware(auth, memberships)(http.NotFoundHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, svc, userID, false)+"x")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no membership responds 400 tenant_required", func(t *testing.T) {
		t.Parallel()
		h := tenantctx.Middleware(auth, memberships)(http.NotFoundHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, svc, uuid.New(), false))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "tenant_required", errorBody(t, rec)["error"])
	})

	t.Run("super admin passes without membership", func(t *testing.T) {
		t.Parallel()
		var captured tenantctx.Context
		var found bool
		h := tenantctx.Middleware(auth, memberships)(captureHandler(&captured, &found))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, svc, uuid.New(), true))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, found)
		assert.True(t, captured.IsSuperAdmin)
		assert.False(t, captured.HasTenant())
	})

	t.Run("role gate rejects disallowed role", func(t *testing.T) {
		t.Parallel()
		clientID := uuid.New()
		members := tenantctx.StaticMemberships{
			clientID: {TenantID: tenantID, Role: "CLIENT"},
		}
		h := tenantctx.Middleware(auth, members,
			tenantctx.WithAllowedRoles("ADMIN", "STAFF"),
		)(http.NotFoundHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, svc, clientID, false))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "forbidden", errorBody(t, rec)["error"])
	})

	t.Run("role gate admits allowed role", func(t *testing.T) {
		t.Parallel()
		var captured tenantctx.Context
		var found bool
		h := tenantctx.Middleware(auth, memberships,
			tenantctx.WithAllowedRoles("ADMIN"),
		)(captureHandler(&captured, &found))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, svc, userID, false))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, found)
	})

	t.Run("super admin bypasses role gate", func(t *testing.T) {
		t.Parallel()
		h := tenantctx.Middleware(auth, memberships,
			tenantctx.WithAllowedRoles("ADMIN"),
		)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, svc, uuid.New(), true))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("optional auth admits anonymous without binding", func(t *testing.T) {
		t.Parallel()
		var captured tenantctx.Context
		var found bool
		h := tenantctx.Middleware(auth, memberships,
			tenantctx.WithOptionalAuth(),
		)(captureHandler(&captured, &found))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, found)
	})

	t.Run("tenant optional admits member-less user", func(t *testing.T) {
		t.Parallel()
		var captured tenantctx.Context
		var found bool
		h := tenantctx.Middleware(auth, memberships,
			tenantctx.WithTenantOptional(),
		)(captureHandler(&captured, &found))

		loneUser := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, svc, loneUser, false))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, found)
		assert.Equal(t, loneUser, captured.UserID)
		assert.False(t, captured.HasTenant())
	})

	t.Run("expired token responds 401", func(t *testing.T) {
		t.Parallel()
		token, err := svc.Sign(tenantctx.TokenClaims{
			StandardClaims: jwt.StandardClaims{
				Subject:   userID.String(),
				ExpiresAt: time.Now().Add(-time.Minute).Unix(),
			},
		})
		require.NoError(t, err)

		h := tenantctx.Middleware(auth, memberships)(http.NotFoundHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
