package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"gofr.dev/pkg/gofr/logging"
)

const batchTimeout = 5 * time.Second

// Provider owns the process-wide span pipeline. It is built once at startup
// and handed to the handlers that need a tracer.
type Provider struct {
	tp     *sdktrace.TracerProvider
	logger logging.Logger
}

// NewProvider builds the tracer provider for cfg. Extra options are appended
// after the exporter, which lets tests attach a span recorder.
func NewProvider(ctx context.Context, cfg Config, logger logging.Logger, opts ...sdktrace.TracerProviderOption) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)))
	}

	tpOpts = append(tpOpts, opts...)

	logger.Infof("exporting spans of %s with the %s exporter", cfg.ServiceName, cfg.Exporter)

	return &Provider{
		tp:     sdktrace.NewTracerProvider(tpOpts...),
		logger: logger,
	}, nil
}

func newExporter(ctx context.Context, cfg Config, logger logging.Logger) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterOTLP:
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
		}

		return exp, nil
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}

		return exp, nil
	case ExporterJSON:
		return NewJSONExporter(cfg.StoreURL, logger), nil
	case ExporterNone:
		return nil, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, cfg.Exporter)
}

// Tracer returns a named tracer backed by this provider.
func (p *Provider) Tracer(name string) trace.Tracer {
	return p.tp.Tracer(name)
}

// SetGlobal makes this provider and the W3C propagators the process-wide
// defaults, replacing the ones installed by gofr.New. Spans that gofr opens
// itself, such as outbound HTTP client spans, then go through the same
// pipeline as the services' own spans.
func (p *Provider) SetGlobal() {
	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Shutdown flushes queued spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.tp.Shutdown(ctx); err != nil {
		p.logger.Errorf("failed to shut down tracer provider: %v", err)
		return err
	}

	return nil
}

// LogExportErrors routes asynchronous export failures to logger. They never
// reach the request path.
func LogExportErrors(logger logging.Logger) {
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Errorf("span export failed: %v", err)
	}))
}
