// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "devtube"

var (
	// CacheOperationsTotal tracks video cache operations.
	// Labels:
	//   - operation: get, set
	//   - status: hit, miss, expired, stored
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of video cache operations",
		},
		[]string{"operation", "status"},
	)

	// CacheEvictionsTotal tracks entries dropped to make room for new ones.
	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of video cache capacity evictions",
		},
	)

	// UpstreamRequestsTotal tracks remote index lookups.
	// Labels:
	//   - outcome: ok, not_found, error
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of remote index lookups",
		},
		[]string{"outcome"},
	)

	// SingleflightRequestsTotal tracks coalescing of concurrent cache misses.
	// Labels:
	//   - result: initiated (new fetch), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)

	// SearchDuration tracks embedded search latency.
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Embedded search query latency",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// DispatchTotal tracks which dispatcher branch handled a request.
	// Labels:
	//   - route: home, speaker, tag, search, video, static
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_requests_total",
			Help:      "Total number of dispatched requests by route",
		},
		[]string{"route"},
	)
)

// Cache operation constants.
const (
	CacheOpGet = "get"
	CacheOpSet = "set"

	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusExpired = "expired"
	CacheStatusStored  = "stored"
)

// Upstream outcome constants.
const (
	UpstreamOK       = "ok"
	UpstreamNotFound = "not_found"
	UpstreamError    = "error"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)
