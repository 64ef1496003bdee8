// Package clientip extracts the originating client IP from HTTP requests,
// used as the rate limit identity for unauthenticated callers.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Get returns the client's IP address from the request.
// Proxy headers are consulted first (X-Forwarded-For, then X-Real-IP),
// falling back to the connection's remote address. Invalid values are
// skipped rather than trusted.
func Get(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// X-Forwarded-For may carry a proxy chain; the first valid entry
		// is the original client.
		for _, ip := range strings.Split(forwarded, ",") {
			if parsed := parseIP(ip); parsed != "" {
				return parsed
			}
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an IP string, returning "" when invalid.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
