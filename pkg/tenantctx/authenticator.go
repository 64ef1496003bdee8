package tenantctx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/opsdeck/opsdeck/pkg/jwt"
)

// Identity is a verified caller identity, before tenant membership
// resolution.
type Identity struct {
	UserID       uuid.UUID
	IsSuperAdmin bool
}

// Membership is a user's resolved membership within a tenant.
type Membership struct {
	TenantID uuid.UUID
	Role     string
}

// Authenticator resolves a verified identity from the credential carried
// by the request. Implementations return ErrUnauthenticated (possibly
// wrapped) when no valid credential is present.
type Authenticator interface {
	Authenticate(r *http.Request) (Identity, error)
}

// MembershipResolver resolves tenant membership for an authenticated user.
// Implementations return ErrTenantRequired (possibly wrapped) when the user
// belongs to no tenant.
type MembershipResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (Membership, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(r *http.Request) (Identity, error)

func (f AuthenticatorFunc) Authenticate(r *http.Request) (Identity, error) {
	return f(r)
}

// MembershipResolverFunc adapts a function to the MembershipResolver interface.
type MembershipResolverFunc func(ctx context.Context, userID uuid.UUID) (Membership, error)

func (f MembershipResolverFunc) Resolve(ctx context.Context, userID uuid.UUID) (Membership, error) {
	return f(ctx, userID)
}

// TokenClaims is the session token payload issued at login and verified by
// the binder on every request. Tenant membership is still resolved against
// the datastore so revoked memberships take effect before token expiry.
type TokenClaims struct {
	jwt.StandardClaims
	SuperAdmin bool `json:"sadm,omitempty"`
}

// JWTAuthenticator verifies bearer session tokens with the platform JWT
// service.
type JWTAuthenticator struct {
	svc *jwt.Service
}

// NewJWTAuthenticator creates an authenticator backed by the given JWT service.
func NewJWTAuthenticator(svc *jwt.Service) *JWTAuthenticator {
	return &JWTAuthenticator{svc: svc}
}

// Authenticate extracts and verifies the Authorization bearer token.
func (a *JWTAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	raw := r.Header.Get("Authorization")
	if raw == "" {
		return Identity{}, ErrUnauthenticated
	}

	token, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok {
		return Identity{}, errors.Join(ErrUnauthenticated, ErrInvalidToken)
	}

	var claims TokenClaims
	if err := a.svc.Parse(token, &claims); err != nil {
		return Identity{}, errors.Join(ErrUnauthenticated, ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, errors.Join(ErrUnauthenticated, ErrInvalidToken, err)
	}

	return Identity{
		UserID:       userID,
		IsSuperAdmin: claims.SuperAdmin,
	}, nil
}

// StaticMemberships is a MembershipResolver backed by a fixed map,
// for tests and single-tenant bootstrap.
type StaticMemberships map[uuid.UUID]Membership

func (m StaticMemberships) Resolve(_ context.Context, userID uuid.UUID) (Membership, error) {
	ms, ok := m[userID]
	if !ok {
		return Membership{}, ErrTenantRequired
	}
	return ms, nil
}
