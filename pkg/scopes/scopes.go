// Package scopes implements hierarchical permission scope matching with
// wildcard support, e.g. "bookings.*" grants "bookings.create".
package scopes

import (
	"slices"
	"sort"
	"strings"
)

const (
	// Wildcard matches every scope.
	Wildcard = "*"
	// Delimiter separates scope segments, e.g. "entities.create".
	Delimiter = "."
)

// Matches reports whether scope is granted by pattern.
// Rules: exact match; global wildcard "*"; namespace wildcard "entities.*"
// matching any scope under the "entities." prefix.
func Matches(scope, pattern string) bool {
	if scope == pattern || pattern == Wildcard {
		return true
	}
	if suffix, ok := strings.CutSuffix(pattern, Wildcard); ok {
		prefix := strings.TrimSuffix(suffix, Delimiter)
		return strings.HasPrefix(scope, prefix+Delimiter)
	}
	return false
}

// Has reports whether any granted scope matches the required scope.
func Has(granted []string, scope string) bool {
	for _, g := range granted {
		if Matches(scope, g) {
			return true
		}
	}
	return false
}

// HasAll reports whether every required scope is granted.
// An empty required set is trivially satisfied.
func HasAll(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if slices.Contains(granted, Wildcard) {
		return true
	}
	for _, req := range required {
		if !Has(granted, req) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one required scope is granted.
// An empty required set is trivially satisfied.
func HasAny(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if slices.Contains(granted, Wildcard) {
		return true
	}
	for _, req := range required {
		if Has(granted, req) {
			return true
		}
	}
	return false
}

// Normalize sorts and deduplicates a scope list, dropping empty entries.
func Normalize(s []string) []string {
	out := make([]string, 0, len(s))
	for _, scope := range s {
		if scope = strings.TrimSpace(scope); scope != "" {
			out = append(out, scope)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}
