// Package front implements the user forwarding endpoint. It sends a fixed
// set of users to the back service and returns both.
package front

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gofr.dev/pkg/gofr/logging"

	"github.com/srclos-net/aws-micro-test/internal/model"
	"github.com/srclos-net/aws-micro-test/internal/tracing"
)

const TracerName = "ecs-microservice-tracer"

var ErrDownstreamCallFailed = errors.New("downstream call failed")

// Downstream posts a body to the back service. gofr's service.HTTP satisfies it.
type Downstream interface {
	PostWithHeaders(ctx context.Context, path string, queryParams map[string]any,
		body []byte, headers map[string]string) (*http.Response, error)
}

type Result struct {
	Users        []model.Record  `json:"users"`
	LambdaResult json.RawMessage `json:"lambdaResult"`
}

type usersRequest struct {
	Users []model.Record `json:"users"`
}

type Service struct {
	cfg    Config
	tracer trace.Tracer
	logger logging.Logger
}

func New(cfg Config, tracer trace.Tracer, logger logging.Logger) *Service {
	return &Service{
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}
}

func users() []model.Record {
	return []model.Record{
		{ID: 1, Name: "Alice"},
		{ID: 2, Name: "Bob"},
	}
}

// ProcessUsers forwards the users to downstream within a "process-users"
// span nested under the request span. The call is not retried.
func (s *Service) ProcessUsers(ctx context.Context, downstream Downstream) (*Result, error) {
	ctx, span := s.tracer.Start(tracing.ContextWithRequestSpan(ctx), "process-users")
	defer span.End()

	records := users()

	lambdaResult, status, err := s.forward(ctx, downstream, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		s.logger.Errorf("failed to process users: %v", err)

		return nil, err
	}

	span.SetAttributes(
		attribute.Int("users.count", len(records)),
		attribute.Int("lambda.response_status", status),
	)

	return &Result{Users: records, LambdaResult: lambdaResult}, nil
}

func (s *Service) forward(ctx context.Context, downstream Downstream, records []model.Record) (json.RawMessage, int, error) {
	body, err := json.Marshal(usersRequest{Users: records})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal users: %w", err)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	headers := map[string]string{"Content-Type": "application/json"}
	tracing.Inject(ctx, headers)

	resp, err := downstream.PostWithHeaders(ctx, s.cfg.Path, nil, body, headers)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDownstreamCallFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading body: %w", ErrDownstreamCallFailed, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d", ErrDownstreamCallFailed, resp.StatusCode)
	}

	return parseBody(data), resp.StatusCode, nil
}

// parseBody keeps a JSON body as-is and wraps anything else as a JSON string.
func parseBody(data []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(data)

	switch {
	case len(trimmed) == 0:
		return json.RawMessage("null")
	case json.Valid(trimmed):
		return json.RawMessage(trimmed)
	}

	quoted, _ := json.Marshal(string(data))

	return quoted
}
