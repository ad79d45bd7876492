package front

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"gofr.dev/pkg/gofr/logging"

	"github.com/srclos-net/aws-micro-test/internal/back"
	"github.com/srclos-net/aws-micro-test/internal/middleware"
	"github.com/srclos-net/aws-micro-test/internal/model"
	"github.com/srclos-net/aws-micro-test/internal/tracing"
)

// httpDownstream posts to baseURL/path the way gofr's HTTP service does.
type httpDownstream struct {
	baseURL string
	client  *http.Client
}

func (d *httpDownstream) PostWithHeaders(ctx context.Context, path string, _ map[string]any,
	body []byte, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/"+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return d.client.Do(req)
}

func newRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return tp, sr
}

func spanByName(sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	for _, s := range sr.Ended() {
		if s.Name() == name {
			return s
		}
	}

	return nil
}

func attrs(s sdktrace.ReadOnlySpan) map[string]any {
	m := make(map[string]any, len(s.Attributes()))

	for _, kv := range s.Attributes() {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}

	return m
}

// backServer runs the back handler behind HTTP with its own tracer.
func backServer(t *testing.T, tracer trace.Tracer, continueTrace bool) *httptest.Server {
	t.Helper()

	h := back.New(tracer, logging.NewLogger(logging.INFO))

	server := httptest.NewServer(tracing.Extract(continueTrace)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		resp := h.Invoke(r.Context(), back.JSONPayload(payload))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write([]byte(resp.Body))
	})))

	t.Cleanup(server.Close)

	return server
}

// frontHandler mirrors the app's middleware chain around ProcessUsers. The
// error path writes the internal detail, which ErrorBody must replace.
func frontHandler(s *Service, tracer trace.Tracer, downstream Downstream) http.Handler {
	return tracing.Middleware(tracer)(middleware.ErrorBody(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, err := s.ProcessUsers(r.Context(), downstream)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}

		_ = json.NewEncoder(w).Encode(result)
	})))
}

func TestService_ProcessUsers_Success(t *testing.T) {
	frontTP, frontSpans := newRecorder(t)
	backTP, backSpans := newRecorder(t)

	server := backServer(t, backTP.Tracer(back.TracerName), false)
	downstream := &httpDownstream{baseURL: server.URL, client: server.Client()}

	tracer := frontTP.Tracer(TracerName)
	svc := New(Config{Path: "process-users", Timeout: time.Second}, tracer, logging.NewLogger(logging.INFO))

	rec := httptest.NewRecorder()
	frontHandler(svc, tracer, downstream).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process-users", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Users        []model.Record          `json:"users"`
		LambdaResult []model.ProcessedRecord `json:"lambdaResult"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, []model.Record{{ID: 1, Name: "Alice"}, {ID: 2, Name: "Bob"}}, got.Users)
	require.Len(t, got.LambdaResult, 2)

	for i, u := range got.Users {
		assert.Equal(t, u.ID, got.LambdaResult[i].ID)
		assert.Equal(t, u.Name, got.LambdaResult[i].Name)
		assert.True(t, got.LambdaResult[i].Processed)
		assert.NotEmpty(t, got.LambdaResult[i].ProcessedAt)
	}

	// Every span opened on either side is closed once the request is done.
	assert.Len(t, frontSpans.Started(), 2)
	assert.Len(t, frontSpans.Ended(), 2)
	assert.Len(t, backSpans.Started(), 2)
	assert.Len(t, backSpans.Ended(), 2)

	root := spanByName(frontSpans, "HTTP GET /process-users")
	nested := spanByName(frontSpans, "process-users")

	require.NotNil(t, root)
	require.NotNil(t, nested)

	assert.Equal(t, root.SpanContext().SpanID(), nested.Parent().SpanID())
	assert.Equal(t, int64(http.StatusOK), attrs(root)["http.status_code"])
	assert.Equal(t, int64(2), attrs(nested)["users.count"])
	assert.Equal(t, int64(http.StatusOK), attrs(nested)["lambda.response_status"])

	// Without continuation the back service starts its own trace.
	handler := spanByName(backSpans, "handler")
	require.NotNil(t, handler)
	assert.False(t, handler.Parent().IsValid())
	assert.NotEqual(t, root.SpanContext().TraceID(), handler.SpanContext().TraceID())
}

func TestService_ProcessUsers_TraceContinuation(t *testing.T) {
	frontTP, frontSpans := newRecorder(t)
	backTP, backSpans := newRecorder(t)

	server := backServer(t, backTP.Tracer(back.TracerName), true)
	downstream := &httpDownstream{baseURL: server.URL, client: server.Client()}

	tracer := frontTP.Tracer(TracerName)
	svc := New(Config{Path: "process-users"}, tracer, logging.NewLogger(logging.INFO))

	rec := httptest.NewRecorder()
	frontHandler(svc, tracer, downstream).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process-users", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	nested := spanByName(frontSpans, "process-users")
	handler := spanByName(backSpans, "handler")

	require.NotNil(t, nested)
	require.NotNil(t, handler)

	assert.Equal(t, nested.SpanContext().TraceID(), handler.SpanContext().TraceID())
	assert.Equal(t, nested.SpanContext().SpanID(), handler.Parent().SpanID())
}

func TestService_ProcessUsers_DownstreamFailure(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()

	badGateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer badGateway.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer slow.Close()

	testCases := []struct {
		desc    string
		server  *httptest.Server
		timeout time.Duration
	}{
		{desc: "connection refused", server: closed, timeout: time.Second},
		{desc: "non-2xx status", server: badGateway, timeout: time.Second},
		{desc: "timeout", server: slow, timeout: 50 * time.Millisecond},
	}

	for i, tc := range testCases {
		tp, sr := newRecorder(t)
		tracer := tp.Tracer(TracerName)

		svc := New(Config{Path: "process-users", Timeout: tc.timeout}, tracer, logging.NewLogger(logging.INFO))
		downstream := &httpDownstream{baseURL: tc.server.URL, client: &http.Client{}}

		rec := httptest.NewRecorder()
		frontHandler(svc, tracer, downstream).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process-users", http.NoBody))

		assert.Equal(t, http.StatusInternalServerError, rec.Code, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String(), "TEST[%d], Failed.\n%s", i, tc.desc)

		assert.Len(t, sr.Ended(), 2, "TEST[%d], Failed.\n%s", i, tc.desc)

		nested := spanByName(sr, "process-users")
		require.NotNil(t, nested, "TEST[%d], Failed.\n%s", i, tc.desc)

		assert.Equal(t, codes.Error, nested.Status().Code, "TEST[%d], Failed.\n%s", i, tc.desc)
		require.NotEmpty(t, nested.Events(), "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, "exception", nested.Events()[0].Name, "TEST[%d], Failed.\n%s", i, tc.desc)

		root := spanByName(sr, "HTTP GET /process-users")
		require.NotNil(t, root, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, int64(http.StatusInternalServerError), attrs(root)["http.status_code"], "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestService_ProcessUsers_ErrorWrapping(t *testing.T) {
	tp, _ := newRecorder(t)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()

	svc := New(Config{Path: "process-users"}, tp.Tracer(TracerName), logging.NewLogger(logging.INFO))

	result, err := svc.ProcessUsers(t.Context(), &httpDownstream{baseURL: closed.URL, client: &http.Client{}})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrDownstreamCallFailed)
}

func TestParseBody(t *testing.T) {
	testCases := []struct {
		desc string
		body string
		want string
	}{
		{desc: "json array", body: `[{"id":1}]`, want: `[{"id":1}]`},
		{desc: "json with whitespace", body: " {\"ok\":true}\n", want: `{"ok":true}`},
		{desc: "empty body", body: ``, want: `null`},
		{desc: "plain text", body: `done`, want: `"done"`},
	}

	for i, tc := range testCases {
		assert.JSONEq(t, tc.want, string(parseBody([]byte(tc.body))), "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}
