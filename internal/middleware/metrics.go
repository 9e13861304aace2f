package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/itemhub/itemhub/internal/metrics"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Metrics returns a middleware that records Prometheus metrics.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			metrics.ActiveConnections.Inc()
			defer metrics.ActiveConnections.Dec()

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			path := normalizePath(r.URL.Path)
			metrics.RecordRequest(r.Method, path, rw.statusCode, duration)
		})
	}
}

// normalizePath normalizes the URL path for metrics labels.
// This prevents high cardinality from dynamic path segments.
func normalizePath(path string) string {
	switch {
	case path == "/" || path == "/health" || path == "/ready" || path == "/metrics" || path == "/docs":
		return path
	case path == "/items" || path == "/items/":
		return "/items/"
	case strings.HasPrefix(path, "/items/"):
		if strings.HasSuffix(path, "/stats") {
			return "/items/{id}/stats"
		}
		return "/items/{id}"
	case strings.HasPrefix(path, "/auth/"):
		return path
	default:
		return "/other"
	}
}
