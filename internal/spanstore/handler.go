package spanstore

import (
	"errors"

	"gofr.dev/pkg/gofr"
	gofrHTTP "gofr.dev/pkg/gofr/http"

	"github.com/srclos-net/aws-micro-test/internal/model"
)

// PostSpans handles POST /api/spans.
func PostSpans(c *gofr.Context) (any, error) {
	var spans []model.Span

	if err := c.Bind(&spans); err != nil {
		c.Logger.Errorf("error binding request body: %v", err)
		return nil, gofrHTTP.ErrorInvalidParam{Params: []string{"body"}}
	}

	tx, err := c.SQL.Begin()
	if err != nil {
		c.Logger.Errorf("error in initiating transaction to store spans: %v", err)
		return nil, err
	}

	if err := SaveSpans(c, tx, spans); err != nil {
		c.Logger.Error(err)
		return nil, err
	}

	c.Logger.Debugf("stored %d spans", len(spans))

	return "Spans received successfully", nil
}

// GetTrace handles GET /api/traces?traceID=<id>.
func GetTrace(c *gofr.Context) (any, error) {
	traceID := c.Param("traceID")
	if traceID == "" {
		return nil, gofrHTTP.ErrorMissingParam{Params: []string{"traceID"}}
	}

	spans, err := TraceSpans(c, c.SQL, traceID)
	if errors.Is(err, ErrTraceNotFound) {
		return nil, gofrHTTP.ErrorEntityNotFound{Name: "traceID", Value: traceID}
	}

	if err != nil {
		c.Logger.Error(err)
		return nil, err
	}

	return spans, nil
}
