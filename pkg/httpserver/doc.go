// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts, and liveness/readiness probes.
//
// Run starts the server and blocks until the context is cancelled, an
// interrupt or TERM signal arrives, or the listener fails. Shutdown drains
// in-flight requests within a configurable deadline. Startup failures are
// wrapped with ErrStart and shutdown failures with ErrShutdown so callers
// can distinguish them with errors.Is.
package httpserver
