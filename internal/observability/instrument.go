package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Log exporters.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// ServiceName identifies this process in exported telemetry.
const ServiceName = "groqway"

// Options configures the process-wide logging setup.
type Options struct {
	Level  slog.Level
	Format string // text|json

	// Exporter optionally ships logs via OpenTelemetry in addition to stdout.
	Exporter string
	// Endpoint overrides the OTLP endpoint URL; empty uses the OTEL_EXPORTER_OTLP_* environment.
	Endpoint string
}

// Instrument installs the default slog logger and the global W3C trace-context propagator.
// The returned shutdown flushes and stops log export; it is a no-op without an exporter.
func Instrument(ctx context.Context, opts Options) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	stdoutHandler, err := newStdoutHandler(opts.Level, opts.Format)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler = newTraceContextHandler(stdoutHandler)
	shutdown := func(context.Context) error { return nil }

	if opts.Exporter != "" && opts.Exporter != ExporterNone {
		provider, err := newLoggerProvider(ctx, opts)
		if err != nil {
			return nil, err
		}
		global.SetLoggerProvider(provider)

		handler = newFanoutHandler(
			handler,
			otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider)),
		)
		shutdown = provider.Shutdown
	}

	slog.SetDefault(slog.New(handler))

	return shutdown, nil
}

// newStdoutHandler creates a handler for human-readable logs.
func newStdoutHandler(level slog.Level, logFormat string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}

	return handler, nil
}

// newLoggerProvider builds a batching OpenTelemetry logger provider that drops records
// below the configured level before they reach the exporter.
func newLoggerProvider(ctx context.Context, opts Options) (*sdklog.LoggerProvider, error) {
	exporter, err := newLogExporter(ctx, opts.Exporter, opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("create %s log exporter: %w", opts.Exporter, err)
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), toSeverity(opts.Level))

	return sdklog.NewLoggerProvider(sdklog.WithProcessor(processor)), nil
}

func newLogExporter(ctx context.Context, exporter, endpoint string) (sdklog.Exporter, error) {
	switch exporter {
	case ExporterStdout:
		return stdoutlog.New()
	case ExporterOTLPHTTP:
		var opts []otlploghttp.Option
		if endpoint != "" {
			opts = append(opts, otlploghttp.WithEndpointURL(endpoint))
		}
		return otlploghttp.New(ctx, opts...)
	case ExporterOTLPGRPC:
		var opts []otlploggrpc.Option
		if endpoint != "" {
			opts = append(opts, otlploggrpc.WithEndpointURL(endpoint))
		}
		return otlploggrpc.New(ctx, opts...)
	default:
		return nil, errors.New("unsupported log exporter (expected: none, stdout, otlp-http, otlp-grpc)")
	}
}

// toSeverity maps a slog level to the nearest OpenTelemetry minimum severity.
func toSeverity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
