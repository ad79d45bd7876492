package tracing

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
	ExporterJSON   = "json"
	ExporterNone   = "none"

	defaultOTLPEndpoint = "http://localhost:4318/v1/traces"
	defaultStoreURL     = "http://localhost:9411/api/spans"
)

var ErrUnknownExporter = errors.New("unknown span exporter")

// Getter is the subset of gofr's config.Config read by ConfigFrom.
type Getter interface {
	Get(key string) string
	GetOrDefault(key, defaultValue string) string
}

// Config selects where a process sends its finished spans.
type Config struct {
	ServiceName string
	Exporter    string
	// Endpoint is the OTLP/HTTP traces URL, e.g. http://collector:4318/v1/traces.
	Endpoint string
	// StoreURL is the span store endpoint used by the json exporter.
	StoreURL string
	// Continue makes root spans continue a trace context sent by the caller.
	Continue bool
}

func ConfigFrom(c Getter) (Config, error) {
	cfg := Config{
		ServiceName: c.GetOrDefault("APP_NAME", "gofr-app"),
		Exporter:    c.GetOrDefault("SPAN_EXPORTER", ExporterOTLP),
		Endpoint:    c.GetOrDefault("OTEL_ENDPOINT", defaultOTLPEndpoint),
		StoreURL:    c.GetOrDefault("SPAN_STORE_URL", defaultStoreURL),
	}

	switch cfg.Exporter {
	case ExporterOTLP, ExporterStdout, ExporterJSON, ExporterNone:
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownExporter, cfg.Exporter)
	}

	if v := c.Get("TRACE_CONTINUATION"); v != "" {
		cont, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse TRACE_CONTINUATION: %w", err)
		}

		cfg.Continue = cont
	}

	return cfg, nil
}
