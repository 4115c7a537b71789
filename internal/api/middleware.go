package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/epochworks/worldgrid-simulator/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const requestIDHeader = "x-request-id"

const tracerName = "github.com/epochworks/worldgrid-simulator/internal/api"

// RequestIDMiddleware ensures a request_id is present on the context,
// sourcing it from the inbound header if provided, and attaches a
// per-request logger annotated with request_id, method, and path. The
// resolved id is echoed back on the response.
func RequestIDMiddleware(base logging.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = logging.Noop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if incoming := r.Header.Get(requestIDHeader); incoming != "" {
				ctx = logging.ContextWithRequestID(ctx, incoming)
			}

			ctx, reqLog := logging.WithRequestLogger(ctx, base.With(
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
			))
			ctx = logging.ContextWithLogger(ctx, reqLog)

			w.Header().Set(requestIDHeader, logging.RequestIDFromContext(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TracingMiddleware enriches request spans with standard attributes and
// ensures a server span exists when no upstream instrumentation created
// one. Inbound trace context is honoured via the configured propagator.
func TracingMiddleware(route string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			span := trace.SpanFromContext(ctx)
			created := false
			spanName := fmt.Sprintf("API %s %s", r.Method, route)
			if !span.SpanContext().IsValid() {
				ctx, span = tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))
				created = true
			} else {
				span.SetName(spanName)
			}

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
			}
			if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
				attrs = append(attrs, attribute.String("request_id", reqID))
			}
			span.SetAttributes(attrs...)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.status_code", sw.status))
			if sw.status >= http.StatusInternalServerError {
				span.SetStatus(otelcodes.Error, http.StatusText(sw.status))
			}

			if created {
				span.End()
			}
		})
	}
}

// StartChildSpan starts a child span for internal operations within
// handlers. extra attributes aid trace navigation.
func StartChildSpan(ctx context.Context, name string, extra ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(extra...))
}

// statusWriter captures the response code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
