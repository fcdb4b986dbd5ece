package metricsx

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMiddleware records request counts and durations labelled with the
// matched ServeMux pattern rather than the raw path, which keeps
// cardinality bounded.
func HTTPMiddleware(mp metric.MeterProvider, namespace string) (func(http.Handler) http.Handler, error) {
	meter := mp.Meter(namespace)

	requests, err := meter.Int64Counter(
		fmt.Sprintf("%s_http_requests_total", namespace),
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		fmt.Sprintf("%s_http_request_duration_seconds", namespace),
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			opt := metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("path", routePattern(r)),
				attribute.String("status_code", strconv.Itoa(rw.status)),
			)
			requests.Add(r.Context(), 1, opt)
			durations.Record(r.Context(), time.Since(start).Seconds(), opt)
		})
	}, nil
}

// routePattern returns the mux pattern the request matched, or "unknown".
func routePattern(r *http.Request) string {
	if r.Pattern == "" {
		return "unknown"
	}
	return r.Pattern
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
