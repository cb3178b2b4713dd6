package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks view-facing HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// CartMutations counts cart writes by operation
	CartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart mutations",
		},
		[]string{"op"},
	)

	// StorageDegraded is 1 once durable storage failed and the in-memory copy took over
	StorageDegraded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_storage_degraded",
			Help: "Whether storage fell back to in-memory (1) or is durable (0)",
		},
	)

	// NotifierEvents counts cross-view events by kind and direction
	NotifierEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_notifier_events_total",
			Help: "Total number of cross-view change events",
		},
		[]string{"kind", "direction"},
	)

	// ResolverFetches counts page fetches issued by option resolvers
	ResolverFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_resolver_fetches_total",
			Help: "Total number of page fetches issued while resolving default options",
		},
		[]string{"source", "outcome"},
	)

	NewOrderNotices = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_new_order_notices_total",
			Help: "Total number of new-order notices raised by the admin watcher",
		},
	)

	// APIRequests counts backend calls by endpoint and status (0 for transport errors)
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "Total number of backend REST requests",
		},
		[]string{"endpoint", "status"},
	)

	// CircuitBreakerState tracks breaker state (0=closed, 1=open, 2=half-open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"circuit_name"},
	)
)
