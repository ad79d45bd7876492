package front

import (
	"net/http"

	"gofr.dev/pkg/gofr"
	"gofr.dev/pkg/gofr/http/response"
)

// RequestsMetric counts process-users requests by result status.
const RequestsMetric = "process_users_requests_total"

type internalError struct{}

func (internalError) Error() string {
	return http.StatusText(http.StatusInternalServerError)
}

func (internalError) StatusCode() int {
	return http.StatusInternalServerError
}

// Handle serves GET /process-users. Failure details are logged and never
// returned to the caller; the 500 body is written by middleware.ErrorBody.
func (s *Service) Handle(c *gofr.Context) (any, error) {
	result, err := s.ProcessUsers(c, c.GetHTTPService(BackServiceName))
	if err != nil {
		c.Metrics().IncrementCounter(c, RequestsMetric, "status", "error")

		return nil, internalError{}
	}

	c.Metrics().IncrementCounter(c, RequestsMetric, "status", "success")

	return response.Raw{Data: result}, nil
}
