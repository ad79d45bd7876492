package back

import (
	"encoding/json"
	"errors"
	"net/http"

	"gofr.dev/pkg/gofr"
	"gofr.dev/pkg/gofr/http/response"
)

// InvocationsMetric counts invocations by result status.
const InvocationsMetric = "process_users_invocations_total"

type invocationError struct {
	status int
}

func (invocationError) Error() string {
	return internalServerError
}

func (e invocationError) StatusCode() int {
	return e.status
}

// Handle serves Invoke over HTTP. The request body is the event and a
// successful response body is sent as-is. The 500 body is written by
// middleware.ErrorBody.
func (h *Handler) Handle(c *gofr.Context) (any, error) {
	resp := h.Invoke(c, bindEvent(c))

	if resp.StatusCode != http.StatusOK {
		c.Metrics().IncrementCounter(c, InvocationsMetric, "status", "error")

		return nil, invocationError{status: resp.StatusCode}
	}

	c.Metrics().IncrementCounter(c, InvocationsMetric, "status", "success")

	return response.Raw{Data: json.RawMessage(resp.Body)}, nil
}

// bindEvent binds the request body. An empty JSON body is an empty event,
// like an empty payload.
func bindEvent(c *gofr.Context) Decoder {
	return func(v any) error {
		err := c.Bind(v)

		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) && syntaxErr.Offset == 0 {
			return nil
		}

		return err
	}
}
