package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Results recorded by RecordAuthAttempt and RecordYouTubeCall.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// Labels: method, route, status
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		},
		[]string{"method", "route"},
	)

	// authAttemptsTotal counts sign-in and registration outcomes.
	//
	// Labels: method (password, register, google), result (success, or the
	// failure kind such as invalid_credentials or state_mismatch)
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "result"},
	)

	// Labels: operation (go_live, video_history), result (success, failure)
	youtubeCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "youtube_calls_total",
			Help: "Total number of YouTube operations",
		},
		[]string{"operation", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		httpResponseSize,
		authAttemptsTotal,
		youtubeCallsTotal,
	)
}

// Metrics collects request count, latency and response size. Requests are
// labeled with the matched chi route pattern rather than the raw path, so
// unmatched paths collapse into a single "unmatched" series.
//
// Usage:
//
//	r.Use(middleware.Metrics())
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			httpResponseSize.WithLabelValues(r.Method, route).Observe(float64(ww.BytesWritten()))
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// MetricsHandler exposes the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordAuthAttempt counts one authentication attempt.
//
// Example:
//
//	middleware.RecordAuthAttempt("password", "invalid_credentials")
func RecordAuthAttempt(method, result string) {
	authAttemptsTotal.WithLabelValues(method, result).Inc()
}

// RecordYouTubeCall counts one YouTube operation.
func RecordYouTubeCall(operation string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	youtubeCallsTotal.WithLabelValues(operation, result).Inc()
}
