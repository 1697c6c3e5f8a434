// Package httpx provides the HTTP middleware stack shared by the harness
// servers: request logging, panic recovery, tracing and metrics.
package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

// statusAwareResponseWriter captures the status code a handler writes.
type statusAwareResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusAwareResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Status returns the written status code, defaulting to 200 when the
// handler never set one explicitly.
func (w *statusAwareResponseWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Logger returns a middleware that logs one line per request.
func Logger() func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			saw := &statusAwareResponseWriter{ResponseWriter: w}

			handler.ServeHTTP(saw, r)

			slog.InfoContext(r.Context(), "Handled request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", saw.Status(),
				"duration_ms", time.Since(start).Milliseconds())
		})
	}
}

// Recovery returns a middleware that converts handler panics into 500
// responses instead of killing the connection.
func Recovery() func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.ErrorContext(r.Context(), "Handler panicked",
						"panic", rec,
						"path", r.URL.Path,
						"stack", string(debug.Stack()))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			handler.ServeHTTP(w, r)
		})
	}
}
