package httpx

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/httpx"

// Metrics returns a middleware recording request counts, durations and error
// counts per route. When instrument creation fails the middleware degrades
// to a pass-through so metrics problems never take the server down.
func Metrics() func(handler http.Handler) http.Handler {
	meter := otel.Meter(meterName)

	requests, err := meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"))
	if err != nil {
		return passthrough
	}

	durations, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of HTTP requests in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return passthrough
	}

	failures, err := meter.Int64Counter("http.server.request.errors",
		metric.WithDescription("Total number of HTTP errors (4xx and 5xx responses)"),
		metric.WithUnit("{error}"))
	if err != nil {
		return passthrough
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			saw := &statusAwareResponseWriter{ResponseWriter: w}

			handler.ServeHTTP(saw, r)

			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.path", r.URL.Path),
				attribute.Int("http.status_code", saw.Status()),
			)
			requests.Add(r.Context(), 1, attrs)
			durations.Record(r.Context(), float64(time.Since(start).Milliseconds()), attrs)
			if saw.Status() >= 400 {
				failures.Add(r.Context(), 1, attrs)
			}
		})
	}
}

func passthrough(handler http.Handler) http.Handler { return handler }
