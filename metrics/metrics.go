// Package metrics exposes Prometheus instrumentation for HTTP routes, content
// store queries and feed assembly.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pubcontent",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pubcontent",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	storeQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pubcontent",
			Name:      "store_query_duration_seconds",
			Help:      "Content store query duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"store", "op"},
	)

	storeQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pubcontent",
			Name:      "store_queries_total",
			Help:      "Content store queries by outcome",
		},
		[]string{"store", "op", "outcome"}, // "ok" / "not_found" / "invalid" / "unavailable"
	)

	// FeedSkippedTotal counts documents left out of a feed because they
	// were malformed.
	FeedSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pubcontent",
			Name:      "feed_skipped_documents_total",
			Help:      "Documents skipped during feed assembly",
		},
		[]string{"field"},
	)

	// ResponseCacheTotal counts response cache hits and misses.
	ResponseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pubcontent",
			Name:      "response_cache_total",
			Help:      "Response cache hits and misses",
		},
		[]string{"route", "result"}, // "hit" / "miss"
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestDuration,
		httpRequestsTotal,
		storeQueryDuration,
		storeQueriesTotal,
		FeedSkippedTotal,
		ResponseCacheTotal,
	}
}

// Register adds every pubcontent collector to reg. Collectors that are already
// registered are left alone, so repeated calls are harmless.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
