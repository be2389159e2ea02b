package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce         sync.Once
	syncOperationsTotal  *prometheus.CounterVec
	syncDrainsTotal      *prometheus.CounterVec
	queuePendingGauge    prometheus.Gauge
	drainDurationSeconds prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used for sync
// observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		syncOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_operations_total",
			Help: "Queued operations processed by drain passes, by type and outcome.",
		}, []string{"type", "outcome"})

		syncDrainsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_drains_total",
			Help: "Drain passes executed, by trigger.",
		}, []string{"trigger"})

		queuePendingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sync_queue_pending",
			Help: "Operations left in the offline queue after the last drain.",
		})

		drainDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sync_drain_duration_seconds",
			Help:    "Latency distribution of full drain passes.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		})

		prometheus.MustRegister(syncOperationsTotal, syncDrainsTotal, queuePendingGauge, drainDurationSeconds)
	})
}

// SyncOperations exposes the per-operation outcome counter.
func SyncOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return syncOperationsTotal
}

// SyncDrains exposes the drain pass counter.
func SyncDrains() *prometheus.CounterVec {
	RegisterMetrics()
	return syncDrainsTotal
}

// QueuePending exposes the pending queue length gauge.
func QueuePending() prometheus.Gauge {
	RegisterMetrics()
	return queuePendingGauge
}

// DrainDuration exposes the drain latency histogram.
func DrainDuration() prometheus.Histogram {
	RegisterMetrics()
	return drainDurationSeconds
}

// MetricsHandler serves the Prometheus scrape endpoint through Fiber,
// registering the sync collectors on first use.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
