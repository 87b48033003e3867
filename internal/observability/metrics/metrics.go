package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "billing_backoffice"

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	staleDiscards   *prometheus.CounterVec
	bulkItems       *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh registry, which keeps tests independent of the global default.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	backendCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Calls to the billing backend by operation and result.",
		},
		[]string{"operation", "result"}, // ok | timeout | error | not_found
	)
	backendDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Latency of billing backend calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)
	staleDiscards := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_stale_discards_total",
			Help:      "Listing responses discarded because a newer reload was started.",
		},
		[]string{"listing"},
	)
	bulkItems := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_items_total",
			Help:      "Items processed by bulk operations.",
		},
		[]string{"action", "result"}, // succeeded | failed
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of BFF requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	reg.MustRegister(backendCalls, backendDuration, staleDiscards, bulkItems, httpDuration)

	return &Metrics{
		gatherer:        reg,
		backendCalls:    backendCalls,
		backendDuration: backendDuration,
		staleDiscards:   staleDiscards,
		bulkItems:       bulkItems,
		httpDuration:    httpDuration,
	}
}

// Handler serves the registered collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveBackendCall(operation, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.backendCalls.WithLabelValues(operation, result).Inc()
	m.backendDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) IncStaleDiscard(listing string) {
	if m == nil {
		return
	}
	m.staleDiscards.WithLabelValues(listing).Inc()
}

func (m *Metrics) AddBulkItems(action string, succeeded, failed int) {
	if m == nil {
		return
	}
	m.bulkItems.WithLabelValues(action, "succeeded").Add(float64(succeeded))
	m.bulkItems.WithLabelValues(action, "failed").Add(float64(failed))
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
