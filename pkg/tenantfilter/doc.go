// Package tenantfilter derives the mandatory "tenant_id = X" predicate
// from the bound tenant context.
//
// Every repository query routes through Scope so that forgetting the tenant
// predicate is structurally impossible rather than a code-review concern.
// With no bound context the builder fails closed: it returns an error, never
// a match-everything filter.
package tenantfilter
