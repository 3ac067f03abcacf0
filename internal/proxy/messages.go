package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/florianilch/groqway/internal/anthropicadapter"
	"github.com/florianilch/groqway/internal/observability"
	"github.com/florianilch/groqway/internal/tokensource"
)

// outcomeOK labels successfully served requests in metrics.
const outcomeOK = "ok"

// MessagesHandler handles Anthropic Messages requests: credential extraction, decoding,
// one adapter call, and mapping of every failure to a JSON error response.
type MessagesHandler struct {
	Adapter    anthropicadapter.MessagesAdapter
	Transport  http.RoundTripper
	Extractors []tokensource.Extractor

	// Diagnostics echoes request headers on 401 and stack traces on 500.
	Diagnostics bool
	Metrics     *observability.Metrics
}

// Compile-time check to ensure MessagesHandler implements http.Handler
var _ http.Handler = (*MessagesHandler)(nil)

// ServeHTTP implements http.Handler interface.
func (h *MessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	outcome := h.serve(r.Context(), w, r)
	h.Metrics.ObserveRequest(outcome, time.Since(start))
}

// serve handles one request and returns the outcome label for metrics.
func (h *MessagesHandler) serve(ctx context.Context, w http.ResponseWriter, r *http.Request) string {
	ts, err := tokensource.FromHeaders(r.Header, h.Extractors...)
	if err != nil {
		slog.WarnContext(ctx, "request without credential", "error", err)
		var headers map[string]string
		if h.Diagnostics {
			headers = headerSnapshot(r.Header)
		}
		return writeError(ctx, w, anthropicadapter.NewMissingCredentialResponse(headers))
	}

	var req anthropicadapter.MessagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			slog.WarnContext(ctx, "request exceeds size limit", "limit_bytes", maxBytesErr.Limit)
			return writeError(ctx, w, anthropicadapter.NewInvalidRequestResponse(
				http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit),
			))
		}
		slog.ErrorContext(ctx, "failed to decode request", "error", err)
		return writeError(ctx, w, anthropicadapter.NewInternalResponse(
			pkgerrors.Wrap(err, "decode request body"),
			h.Diagnostics,
		))
	}

	if ctx.Err() != nil {
		return "canceled"
	}

	response, err := h.Adapter.ProcessRequest(ctx, req, tokensource.NewTransport(h.Transport, ts))
	if err != nil {
		slog.ErrorContext(ctx, "request failed", "error", err)

		var downstreamErr *anthropicadapter.DownstreamError
		if errors.As(err, &downstreamErr) {
			return writeError(ctx, w, anthropicadapter.NewDownstreamResponse(downstreamErr))
		}

		if anthropicadapter.StackTrace(err) == "" {
			err = pkgerrors.WithStack(err)
		}
		return writeError(ctx, w, anthropicadapter.NewInternalResponse(err, h.Diagnostics))
	}

	h.Metrics.AddTokens(response.Usage.InputTokens, response.Usage.OutputTokens)
	slog.DebugContext(ctx, "request completed",
		"stop_reason", response.StopReason,
		"input_tokens", response.Usage.InputTokens,
		"output_tokens", response.Usage.OutputTokens,
	)

	writeJSON(ctx, w, response, http.StatusOK)
	return outcomeOK
}
