// Package metrics provides Prometheus metrics for the transit router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the router.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance.
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Query metrics
	QueriesTotal    *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec
	RoundsExecuted  prometheus.Histogram
	ReachedStops    prometheus.Gauge
	UnreachableDest *prometheus.CounterVec

	// Feed metrics
	FeedLoadDuration     prometheus.Histogram
	WalkingTransferEdges prometheus.Gauge
	IndexedStops         prometheus.Gauge
}

// New creates and registers all router metrics with a new registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raptor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raptor_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raptor_queries_total",
			Help: "Total number of routing queries, by endpoint",
		},
		[]string{"endpoint"},
	)

	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raptor_query_duration_seconds",
			Help:    "Routing query latency distribution, by endpoint",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	roundsExecuted := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "raptor_rounds_executed",
		Help:    "Number of RAPTOR rounds executed per query",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	})

	reachedStops := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "raptor_reached_stops",
		Help: "Number of distinct stops reached by the most recent query",
	})

	unreachableDest := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raptor_unreachable_destinations_total",
			Help: "Total number of destinations that came back unreachable, by endpoint",
		},
		[]string{"endpoint"},
	)

	feedLoadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "raptor_feed_load_duration_seconds",
		Help:    "Time to load, merge, date-filter and index a GTFS feed set",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	walkingTransferEdges := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "raptor_walking_transfer_edges",
		Help: "Number of directed walking-transfer edges in the indexed feed",
	})

	indexedStops := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "raptor_indexed_stops",
		Help: "Number of stops in the indexed feed",
	})

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		queriesTotal,
		queryDuration,
		roundsExecuted,
		reachedStops,
		unreachableDest,
		feedLoadDuration,
		walkingTransferEdges,
		indexedStops,
	)

	return &Metrics{
		Registry:             registry,
		HTTPRequestsTotal:    httpRequestsTotal,
		HTTPRequestDuration:  httpRequestDuration,
		QueriesTotal:         queriesTotal,
		QueryDuration:        queryDuration,
		RoundsExecuted:       roundsExecuted,
		ReachedStops:         reachedStops,
		UnreachableDest:      unreachableDest,
		FeedLoadDuration:     feedLoadDuration,
		WalkingTransferEdges: walkingTransferEdges,
		IndexedStops:         indexedStops,
	}
}
