package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Backend client metrics
var (
	// ClientRequestsTotal counts backend calls by method, route template, and outcome
	ClientRequestsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_requests_total",
			Help:      "Total number of requests sent to the events backend",
		},
		[]string{"method", "route", "outcome"},
	)

	// ClientRequestDuration records backend call latency in seconds
	ClientRequestDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "client_request_duration_seconds",
			Help:      "Events backend request latency in seconds",
			// Buckets: 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s, 10s
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// ClientResponseSize records the size of backend response bodies in bytes
	ClientResponseSize = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "client_response_size_bytes",
			Help:      "Events backend response body size in bytes",
			// Buckets: 100B, 1KB, 10KB, 100KB, 1MB, 10MB
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"method", "route"},
	)
)

// ObserveClientRequest records one completed backend call.
// outcome is "success" or the lower-cased failure kind.
func ObserveClientRequest(method, route, outcome string, elapsed time.Duration, size int) {
	route = normalizeRoute(route)
	ClientRequestsTotal.WithLabelValues(method, route, outcome).Inc()
	ClientRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	ClientResponseSize.WithLabelValues(method, route).Observe(float64(size))
}

// normalizeRoute keeps label cardinality bounded when a caller passes a
// concrete path instead of a template.
func normalizeRoute(route string) string {
	if route == "" {
		return "unknown"
	}
	if !strings.HasPrefix(route, "/") {
		return route
	}
	segments := strings.Split(route, "/")
	for i, seg := range segments {
		if looksLikeID(seg) {
			segments[i] = "{param}"
		}
	}
	return strings.Join(segments, "/")
}

func looksLikeID(seg string) bool {
	if seg == "" || strings.HasPrefix(seg, "{") {
		return false
	}
	if strings.Contains(seg, "@") {
		return true
	}
	digits := 0
	for _, r := range seg {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits > 0 && len(seg) >= 8
}
