package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/florianilch/groqway/internal/anthropicadapter/groq"
	"github.com/florianilch/groqway/internal/observability"
	"github.com/florianilch/groqway/internal/observability/middleware"
	"github.com/florianilch/groqway/internal/tokensource"
)

// DefaultMaxRequestBytes bounds inbound request bodies.
const DefaultMaxRequestBytes = 10 << 20 // 10 MiB

// ReadinessChecker reports whether the application is ready to serve traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// Proxy serves the Anthropic Messages API backed by a Groq chat completion model.
type Proxy struct {
	handler  http.Handler
	server   *http.Server
	listener net.Listener
}

// Compile-time check to ensure Proxy implements http.Handler
var _ http.Handler = (*Proxy)(nil)

type options struct {
	transport       http.RoundTripper
	maxRequestBytes int64
	diagnostics     bool
	metrics         *observability.Metrics
	metricsPath     string
	extractors      []tokensource.Extractor
}

// Option configures a Proxy.
type Option func(*options)

// WithTransport sets the base transport for downstream calls (default http.DefaultTransport).
func WithTransport(transport http.RoundTripper) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// WithMaxRequestBytes sets the inbound body size limit.
func WithMaxRequestBytes(n int64) Option {
	return func(o *options) {
		o.maxRequestBytes = n
	}
}

// WithDiagnostics enables echoing request headers on 401 responses and stack traces on 500 responses.
// Header echoes include the caller's credentials verbatim; keep this off outside local debugging.
func WithDiagnostics(enabled bool) Option {
	return func(o *options) {
		o.diagnostics = enabled
	}
}

// WithMetrics records request, downstream and token metrics and serves them on path.
func WithMetrics(metrics *observability.Metrics, path string) Option {
	return func(o *options) {
		o.metrics = metrics
		o.metricsPath = path
	}
}

// WithCredentialExtractors replaces the default credential header lookup chain.
func WithCredentialExtractors(extractors ...tokensource.Extractor) Option {
	return func(o *options) {
		o.extractors = extractors
	}
}

// New creates a Proxy for the given downstream configuration.
func New(downstream groq.Config, health ReadinessChecker, opts ...Option) (*Proxy, error) {
	if health == nil {
		return nil, fmt.Errorf("readiness checker cannot be nil")
	}

	o := options{
		transport:       http.DefaultTransport,
		maxRequestBytes: DefaultMaxRequestBytes,
		extractors:      tokensource.DefaultExtractors(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}
	if o.maxRequestBytes <= 0 {
		return nil, fmt.Errorf("max request bytes must be positive, got %d", o.maxRequestBytes)
	}

	adapter, err := groq.NewCreateMessageAdapter(downstream)
	if err != nil {
		return nil, fmt.Errorf("failed to create adapter: %w", err)
	}

	// Outbound chain (per request the credential transport is added on top):
	// auth → trace context → metrics → base
	transport := middleware.TraceContextInjection(o.metrics.InstrumentTransport(o.transport))

	messages := &MessagesHandler{
		Adapter:     adapter,
		Transport:   transport,
		Extractors:  o.extractors,
		Diagnostics: o.diagnostics,
		Metrics:     o.metrics,
	}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/messages", messages)
	mux.Handle("GET /v1/models", modelsHandler(adapter.Model(), time.Now()))
	mux.Handle("GET /health/live", livenessHandler())
	mux.Handle("GET /health/ready", readinessHandler(health))
	if o.metrics != nil && o.metricsPath != "" {
		mux.Handle("GET "+o.metricsPath, o.metrics.Handler())
	}
	mux.Handle("GET /{$}", rootHandler())
	mux.Handle("/", notFoundHandler())

	handler := applyMiddlewares(mux,
		middleware.RequestIDGeneration,
		middleware.TraceContextExtraction,
		middleware.Logging(slog.Default()),
		middleware.RequestIDPropagation,
		CORS,
		Recovery,
		RequestSizeLimit(o.maxRequestBytes),
	)

	return &Proxy{handler: handler}, nil
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

// Start binds addr and serves in the background. Runtime failures are delivered on the
// returned channel, which is closed when the server stops.
func (p *Proxy) Start(ctx context.Context, addr string) (<-chan error, error) {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	p.listener = listener
	p.server = &http.Server{
		Handler:           p.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// Downstream completions of up to 16k tokens can take minutes
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		slog.InfoContext(ctx, "proxy listening", "address", listener.Addr().String())
		if err := p.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return errCh, nil
}

// Addr returns the bound listener address, or nil before Start.
func (p *Proxy) Addr() net.Addr {
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Shutdown gracefully stops the server, waiting for in-flight requests until ctx expires.
func (p *Proxy) Shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	if err := p.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("proxy shutdown: %w", err)
	}
	return nil
}
