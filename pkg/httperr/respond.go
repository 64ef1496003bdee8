package httperr

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// response is the structured error body returned to clients.
// Internal details are never leaked; the message for 5xx errors is
// replaced with a generic one before serialization.
type response struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Respond writes err as a structured JSON error response.
// Server-side failures are logged with their cause and surfaced to the
// client as an opaque internal error.
func Respond(ctx context.Context, w http.ResponseWriter, log *slog.Logger, err error) {
	he := As(err)

	msg := he.Message
	if he.StatusCode() >= http.StatusInternalServerError {
		if log != nil {
			log.ErrorContext(ctx, "request failed", slog.Any("error", err))
		}
		msg = "internal server error"
	} else if log != nil {
		log.DebugContext(ctx, "request rejected",
			slog.String("kind", string(he.Kind)),
			slog.String("message", he.Message),
		)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(he.StatusCode())
	_ = json.NewEncoder(w).Encode(response{
		Error:   string(he.Kind),
		Message: msg,
		Meta:    he.Meta,
	})
}
