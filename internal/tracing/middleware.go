package tracing

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type requestSpanKey struct{}

// Middleware opens a root span for every request and ends it once the
// response has been written, tagged with the final status code.
func Middleware(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := StartRoot(r.Context(), tracer, "HTTP "+r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				),
			)

			rec := &statusRecorder{ResponseWriter: w}

			defer func() {
				p := recover()

				status := rec.Status()
				if p != nil && rec.status == 0 {
					// Recovery further out answers with a 500.
					status = http.StatusInternalServerError
				}

				span.SetAttributes(attribute.Int("http.status_code", status))

				switch {
				case p != nil:
					span.SetStatus(codes.Error, fmt.Sprint(p))
				case status >= http.StatusInternalServerError:
					span.SetStatus(codes.Error, http.StatusText(status))
				}

				span.End()

				if p != nil {
					panic(p)
				}
			}()

			next.ServeHTTP(rec, r.WithContext(context.WithValue(ctx, requestSpanKey{}, span)))
		})
	}
}

// ContextWithRequestSpan makes the span opened by Middleware the active span
// of ctx. Frameworks may have put their own span on the context in between.
func ContextWithRequestSpan(ctx context.Context) context.Context {
	if span, ok := ctx.Value(requestSpanKey{}).(trace.Span); ok {
		return trace.ContextWithSpan(ctx, span)
	}

	return ctx
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}

	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	return r.ResponseWriter.Write(b)
}

// Status is the code sent to the client, 200 when the handler wrote nothing.
func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}

	return r.status
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
