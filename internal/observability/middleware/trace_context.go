package middleware

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceContextExtraction extracts W3C trace context from Traceparent/Tracestate headers
// and adds trace_id/span_id to both httplog attributes and the request context.
//
// This enables distributed tracing participation without creating spans:
//   - Reads trace context from incoming request headers
//   - Stores it in request context for downstream logging and the outbound Groq call
//   - Sets httplog attributes for immediate visibility
//
// Trace context flows: Client → Headers → Context → Logs / Groq request headers
func TraceContextExtraction(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract trace context from Traceparent/Tracestate headers into context
		propagator := otel.GetTextMapPropagator()
		ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		// Read the SpanContext (works without active span)
		spanCtx := trace.SpanContextFromContext(ctx)
		if spanCtx.IsValid() {
			// SetLogAttrs is no-op if Logging middleware does not exist.
			SetLogAttrs(ctx,
				slog.String("trace_id", spanCtx.TraceID().String()),
				slog.String("span_id", spanCtx.SpanID().String()),
			)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TraceContextInjection wraps an outbound transport so each request carries the trace
// context stored in its context (see TraceContextExtraction).
func TraceContextInjection(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		carrier := propagation.HeaderCarrier{}
		otel.GetTextMapPropagator().Inject(req.Context(), carrier)
		if len(carrier) == 0 {
			return next.RoundTrip(req)
		}

		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		for key, values := range carrier {
			req.Header[key] = values
		}
		return next.RoundTrip(req)
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
