package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/zengarden/zengarden-api/internal/redact"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code.
func RespondWithJSON(w http.ResponseWriter, _ *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithError writes a JSON error response carrying the request's
// trace ID so clients can quote it back.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithJSON(w, r, status, ErrorResponse{
		Error:   message,
		TraceID: GetTraceID(r.Context()),
	})
}

// RespondWithInternalError logs the detailed error (redacted) and sends
// a generic 500 so internals never leak to clients.
func RespondWithInternalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal error handling request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("trace_id", GetTraceID(r.Context())),
		slog.String("error", redact.Error(err)))
	RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
}
