package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type remoteParentKey struct{}

var propagator = propagation.TraceContext{}

// Inject writes the W3C trace context of the active span in ctx to headers.
func Inject(ctx context.Context, headers map[string]string) {
	propagator.Inject(ctx, propagation.MapCarrier(headers))
}

// Extract reads the caller's trace context from incoming headers so that
// StartRoot can continue it. With enabled false the headers are ignored and
// every request starts a new trace.
func Extract(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remote := trace.SpanContextFromContext(
				propagator.Extract(context.Background(), propagation.HeaderCarrier(r.Header)))

			if remote.IsValid() {
				r = r.WithContext(context.WithValue(r.Context(), remoteParentKey{}, remote))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// StartRoot starts the top-level span of a unit of work in this process. It
// continues the caller's trace when Extract stored one, otherwise the span
// is a new root regardless of any span already on ctx.
func StartRoot(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if remote, ok := ctx.Value(remoteParentKey{}).(trace.SpanContext); ok {
		return tracer.Start(trace.ContextWithRemoteSpanContext(ctx, remote), name, opts...)
	}

	return tracer.Start(ctx, name, append(opts, trace.WithNewRoot())...)
}
