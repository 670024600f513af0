package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_service_requests_total",
		Help: "HTTP requests by method and status code.",
	}, []string{"method", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admin_service_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	StoreOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_service_store_operations_total",
		Help: "Data store operations by operation, collection and outcome.",
	}, []string{"operation", "collection", "status"})

	StoreOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admin_service_store_operation_duration_seconds",
		Help:    "Data store operation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ToastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_service_toasts_total",
		Help: "User notifications raised by table managers.",
	}, []string{"level"})
)

// ObserveStore records one store call started at start.
func ObserveStore(operation, collection string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperationsTotal.WithLabelValues(operation, collection, status).Inc()
	StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
