package tracing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"gofr.dev/pkg/gofr/logging"

	"github.com/srclos-net/aws-micro-test/internal/model"
)

const exportTimeout = 10 * time.Second

var ErrUnexpectedStatus = errors.New("unexpected response status code")

// JSONExporter posts finished spans as JSON to the span store.
type JSONExporter struct {
	endpoint string
	client   *http.Client
	logger   logging.Logger
}

func NewJSONExporter(endpoint string, logger logging.Logger) *JSONExporter {
	return &JSONExporter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: exportTimeout},
		logger:   logger,
	}
}

func (e *JSONExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}

	payload, err := json.Marshal(convertSpans(spans))
	if err != nil {
		return fmt.Errorf("failed to marshal spans: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Errorf("failed to export %d spans: %v", len(spans), err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	e.logger.Debugf("exported %d spans to %s", len(spans), e.endpoint)

	return nil
}

// Shutdown shuts down the exporter.
func (*JSONExporter) Shutdown(context.Context) error {
	return nil
}

func convertSpans(spans []sdktrace.ReadOnlySpan) []model.Span {
	converted := make([]model.Span, 0, len(spans))

	for _, s := range spans {
		span := model.Span{
			TraceID:   s.SpanContext().TraceID().String(),
			ID:        s.SpanContext().SpanID().String(),
			Name:      s.Name(),
			Timestamp: s.StartTime().UnixMilli(),
			Duration:  s.EndTime().Sub(s.StartTime()).Milliseconds(),
			Tags:      make(map[string]string, len(s.Attributes())+len(s.Resource().Attributes())),
		}

		if s.Parent().IsValid() {
			span.ParentID = s.Parent().SpanID().String()
		}

		for _, kv := range s.Resource().Attributes() {
			k, v := attributeToStringPair(kv)
			span.Tags[k] = v
		}

		for _, kv := range s.Attributes() {
			k, v := attributeToStringPair(kv)
			span.Tags[k] = v
		}

		addStatusTags(span.Tags, s)

		if name, ok := s.Resource().Set().Value(semconv.ServiceNameKey); ok {
			span.LocalEndpoint = map[string]string{"serviceName": name.AsString()}
		}

		converted = append(converted, span)
	}

	return converted
}

func addStatusTags(tags map[string]string, s sdktrace.ReadOnlySpan) {
	if s.Status().Code == codes.Error {
		tags["otel.status_code"] = "ERROR"
		tags["error"] = s.Status().Description
	}

	exceptions := 0

	for _, ev := range s.Events() {
		if ev.Name != semconv.ExceptionEventName {
			continue
		}

		for _, kv := range ev.Attributes {
			if kv.Key == semconv.ExceptionMessageKey {
				tags["exception.message."+strconv.Itoa(exceptions)] = kv.Value.AsString()
			}
		}

		exceptions++
	}
}

func attributeToStringPair(kv attribute.KeyValue) (string, string) {
	switch kv.Value.Type() {
	// For slice attributes, serialize as JSON list string.
	case attribute.BOOLSLICE:
		data, _ := json.Marshal(kv.Value.AsBoolSlice())
		return string(kv.Key), string(data)
	case attribute.INT64SLICE:
		data, _ := json.Marshal(kv.Value.AsInt64Slice())
		return string(kv.Key), string(data)
	case attribute.FLOAT64SLICE:
		data, _ := json.Marshal(kv.Value.AsFloat64Slice())
		return string(kv.Key), string(data)
	case attribute.STRINGSLICE:
		data, _ := json.Marshal(kv.Value.AsStringSlice())
		return string(kv.Key), string(data)
	default:
		return string(kv.Key), kv.Value.Emit()
	}
}
