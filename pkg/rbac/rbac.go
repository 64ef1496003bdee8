// Package rbac evaluates role-based permissions from a static
// role-to-permission table.
//
// The evaluator is pure and stateless after construction: permissions,
// including inherited ones, are precomputed per role. A super-admin tenant
// context bypasses evaluation entirely; this is the documented break-glass
// path, not a default.
package rbac

import (
	"context"
	"slices"

	"github.com/opsdeck/opsdeck/pkg/scopes"
	"github.com/opsdeck/opsdeck/pkg/tenantctx"
)

// Well-known role labels used across the platform.
const (
	RoleAdmin  = "ADMIN"
	RoleStaff  = "STAFF"
	RoleClient = "CLIENT"
)

// maxInheritanceDepth bounds role inheritance chains.
const maxInheritanceDepth = 10

// Role is a named permission set, optionally inheriting other roles.
type Role struct {
	Permissions []string
	Inherits    []string
}

// Evaluator answers (role, permission) queries against a precomputed
// permission table. Safe for concurrent use; the table is immutable after
// construction.
type Evaluator struct {
	rolePermissions map[string][]string
}

// NewEvaluator precomputes direct and inherited permissions for each role.
// Inheritance cycles are rejected.
func NewEvaluator(roles map[string]Role) (*Evaluator, error) {
	for name := range roles {
		if hasCycle(name, roles, make(map[string]bool), 0) {
			return nil, ErrCircularInheritance
		}
	}

	table := make(map[string][]string, len(roles))
	for name := range roles {
		table[name] = scopes.Normalize(collect(name, roles, make(map[string]bool), 0))
	}
	return &Evaluator{rolePermissions: table}, nil
}

// DefaultRoles is the platform's standard role table.
// CLIENT holds portal self-service permissions, STAFF inherits CLIENT and
// adds operational ones, ADMIN inherits STAFF and adds tenant management.
func DefaultRoles() map[string]Role {
	return map[string]Role{
		RoleClient: {
			Permissions: []string{
				"bookings.read", "bookings.create",
				"documents.read",
				"tasks.read",
			},
		},
		RoleStaff: {
			Inherits: []string{RoleClient},
			Permissions: []string{
				"bookings.*",
				"documents.*",
				"tasks.*",
				"presets.read", "presets.create",
			},
		},
		RoleAdmin: {
			Inherits: []string{RoleStaff},
			Permissions: []string{
				"entities.*",
				"presets.*",
				"members.*",
			},
		},
	}
}

// Can checks if role grants permission, directly or through inheritance.
func (e *Evaluator) Can(role, permission string) error {
	granted, ok := e.rolePermissions[role]
	if !ok {
		return ErrUnknownRole
	}
	if !scopes.Has(granted, permission) {
		return ErrPermissionDenied
	}
	return nil
}

// CanAll checks if role grants every listed permission.
func (e *Evaluator) CanAll(role string, permissions ...string) error {
	granted, ok := e.rolePermissions[role]
	if !ok {
		return ErrUnknownRole
	}
	if !scopes.HasAll(granted, permissions) {
		return ErrPermissionDenied
	}
	return nil
}

// CanCtx checks the bound tenant context's role against permission.
// Called after context binding and before any mutating data access; a
// super-admin context short-circuits to allow.
func (e *Evaluator) CanCtx(ctx context.Context, permission string) error {
	tc, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	if tc.IsSuperAdmin {
		return nil
	}
	return e.Can(tc.Role, permission)
}

// Roles returns the known role names, sorted.
func (e *Evaluator) Roles() []string {
	names := make([]string, 0, len(e.rolePermissions))
	for name := range e.rolePermissions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func collect(name string, roles map[string]Role, visited map[string]bool, depth int) []string {
	if depth > maxInheritanceDepth || visited[name] {
		return nil
	}
	visited[name] = true

	role, ok := roles[name]
	if !ok {
		return nil
	}

	perms := slices.Clone(role.Permissions)
	for _, parent := range role.Inherits {
		perms = append(perms, collect(parent, roles, visited, depth+1)...)
	}
	return perms
}

func hasCycle(name string, roles map[string]Role, inProgress map[string]bool, depth int) bool {
	if depth > maxInheritanceDepth {
		return true
	}
	if inProgress[name] {
		return true
	}
	inProgress[name] = true
	defer delete(inProgress, name)

	for _, parent := range roles[name].Inherits {
		if hasCycle(parent, roles, inProgress, depth+1) {
			return true
		}
	}
	return false
}
