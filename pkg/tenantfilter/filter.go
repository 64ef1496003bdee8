package tenantfilter

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/opsdeck/opsdeck/pkg/tenantctx"
)

// Condition is a SQL predicate fragment with its bound arguments.
// The fragment references placeholders starting at $1.
type Condition struct {
	SQL  string
	Args []any
}

// Builder derives tenant-scoping predicates for a configured tenant-owning
// column. The zero-value-adjacent default scopes on "tenant_id".
type Builder struct {
	column   string
	disabled bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithColumn sets the tenant-owning column name.
func WithColumn(column string) Option {
	return func(b *Builder) {
		if column != "" {
			b.column = column
		}
	}
}

// Disabled turns the builder into a pass-through for single-tenant
// deployments where the multi-tenancy switch is off.
func Disabled() Option {
	return func(b *Builder) { b.disabled = true }
}

// New creates a tenant filter builder.
func New(opts ...Option) *Builder {
	b := &Builder{column: "tenant_id"}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ForCurrentTenant returns the tenant equality predicate for the bound
// context. Fails with tenantctx.ErrNoContext when nothing is bound and with
// ErrNoTenant when the bound context has no tenant; it never degrades to an
// unscoped filter.
func (b *Builder) ForCurrentTenant(ctx context.Context) (Condition, error) {
	if b.disabled {
		return Condition{SQL: "TRUE"}, nil
	}

	tc, err := tenantctx.Require(ctx)
	if err != nil {
		return Condition{}, err
	}
	if !tc.HasTenant() {
		return Condition{}, ErrNoTenant
	}

	return b.ForTenant(tc.TenantID), nil
}

// ForTenant returns the equality predicate for an explicit tenant.
// Intended for break-glass super-admin paths that name their target tenant;
// regular handlers use ForCurrentTenant.
func (b *Builder) ForTenant(tenantID uuid.UUID) Condition {
	return Condition{
		SQL:  b.column + " = $1",
		Args: []any{tenantID},
	}
}

// Scope combines a caller predicate with the mandatory tenant predicate.
// The caller writes its placeholders starting at $1; the tenant argument is
// appended after the caller's own, so no renumbering is required on either
// side. An empty caller predicate yields the tenant predicate alone.
func (b *Builder) Scope(ctx context.Context, where string, args ...any) (string, []any, error) {
	if b.disabled {
		if where == "" {
			return "TRUE", args, nil
		}
		return where, args, nil
	}

	tc, err := tenantctx.Require(ctx)
	if err != nil {
		return "", nil, err
	}
	if !tc.HasTenant() {
		return "", nil, ErrNoTenant
	}

	tenantPredicate := b.column + " = $" + strconv.Itoa(len(args)+1)
	scopedArgs := append(append([]any{}, args...), tc.TenantID)

	if where == "" {
		return tenantPredicate, scopedArgs, nil
	}
	return "(" + where + ") AND " + tenantPredicate, scopedArgs, nil
}
