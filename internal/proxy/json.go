package proxy

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/florianilch/groqway/internal/anthropicadapter"
	"github.com/florianilch/groqway/internal/observability/middleware"
)

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeError writes errResp with its own status code and returns its kind for metrics.
func writeError(ctx context.Context, w http.ResponseWriter, errResp *anthropicadapter.ErrorResponse) string {
	middleware.SetLogAttrs(ctx, slog.String("error_kind", string(errResp.Type)))
	writeJSON(ctx, w, errResp, errResp.HTTPStatus())
	return string(errResp.Type)
}

// headerSnapshot flattens request headers for the diagnostic echo: lowercase names,
// multiple values joined with ", ".
func headerSnapshot(h http.Header) map[string]string {
	snapshot := make(map[string]string, len(h))
	for name, values := range h {
		snapshot[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	return snapshot
}
