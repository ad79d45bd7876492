// Package back implements the user processing function: it tags every
// received user record as processed and returns the result.
package back

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gofr.dev/pkg/gofr/logging"

	"github.com/srclos-net/aws-micro-test/internal/model"
	"github.com/srclos-net/aws-micro-test/internal/tracing"
)

const (
	TracerName = "lambda-microservice-tracer"

	internalServerError = "Internal Server Error"
)

var ErrTransformFailed = errors.New("transform failed")

// Event is the invocation payload. A missing users key means no users.
type Event struct {
	Users []model.Record `json:"users"`
}

// Response mirrors a proxy integration result: a status code and a JSON body.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Decoder fills an Event from the invocation payload.
type Decoder func(v any) error

// JSONPayload decodes a raw JSON event. An empty payload is an empty event.
func JSONPayload(payload []byte) Decoder {
	return func(v any) error {
		if len(bytes.TrimSpace(payload)) == 0 {
			return nil
		}

		return json.Unmarshal(payload, v)
	}
}

type Handler struct {
	tracer trace.Tracer
	logger logging.Logger
	now    func() time.Time
}

func New(tracer trace.Tracer, logger logging.Logger) *Handler {
	return &Handler{
		tracer: tracer,
		logger: logger,
		now:    time.Now,
	}
}

// Invoke handles one invocation inside a "handler" span. Failures are
// recorded on that span and answered with a generic 500 body.
func (h *Handler) Invoke(ctx context.Context, decode Decoder) Response {
	ctx, span := tracing.StartRoot(ctx, h.tracer, "handler")
	defer span.End()

	span.AddEvent("Processing user data")

	body, count, err := h.process(ctx, decode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("result.status", "error"))

		h.logger.Errorf("failed to process users: %v", err)

		return errorResponse()
	}

	span.SetAttributes(
		attribute.Int("users.processed_count", count),
		attribute.String("result.status", "success"),
	)

	return Response{StatusCode: http.StatusOK, Body: string(body)}
}

func (h *Handler) process(ctx context.Context, decode Decoder) ([]byte, int, error) {
	var event Event

	if err := decode(&event); err != nil {
		return nil, 0, fmt.Errorf("%w: decoding event: %w", ErrTransformFailed, err)
	}

	processed := h.Transform(ctx, event.Users)

	body, err := json.Marshal(processed)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: encoding users: %w", ErrTransformFailed, err)
	}

	return body, len(processed), nil
}

// Transform returns a processed copy of users stamped with the call time.
// The input slice is left untouched.
func (h *Handler) Transform(ctx context.Context, users []model.Record) []model.ProcessedRecord {
	_, span := h.tracer.Start(ctx, "process-users")
	defer span.End()

	span.SetAttributes(attribute.Int("input.users_count", len(users)))

	now := h.now()
	processed := make([]model.ProcessedRecord, 0, len(users))

	for _, u := range users {
		processed = append(processed, u.Process(now))
	}

	return processed
}

func errorResponse() Response {
	body, _ := json.Marshal(map[string]string{"error": internalServerError})

	return Response{StatusCode: http.StatusInternalServerError, Body: string(body)}
}
