package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/httplog/v3"
)

// Logging logs HTTP requests with method, path, status, and duration.
// Credential headers (Authorization, x-api-key, anthropic-api-key) and bodies are never logged.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Schema: httplog.SchemaECS.Concise(true),

		// Explicit allow-list; anything carrying the caller's Groq key stays out of logs
		LogRequestHeaders:  []string{"Content-Type", "Origin", "Anthropic-Version"},
		LogResponseHeaders: []string{}, // Explicit empty (default is empty, but be clear)
		LogRequestBody:     nil,        // Never log request bodies (default, but explicit)
		LogResponseBody:    nil,        // Never log response bodies (default, but explicit)

		RecoverPanics: false, // proxy.Recovery logs panics and writes the error response
	})
}

// SetLogAttrs sets attributes on the request log.
func SetLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	httplog.SetAttrs(ctx, attrs...)
}
