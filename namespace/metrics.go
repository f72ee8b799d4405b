package namespace

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts operations by kind and outcome.
	// Labels: op (open, store, read), result (ok, duplicate, not_found,
	// invalid, not_ready, unavailable)
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecstore",
			Subsystem: "namespace",
			Name:      "operations_total",
			Help:      "Total number of namespace operations by outcome",
		},
		[]string{"op", "result"},
	)

	// OperationDuration tracks operation latency.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecstore",
			Subsystem: "namespace",
			Name:      "operation_duration_seconds",
			Help:      "Duration of namespace operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// NamespacesEnsured counts namespaces this process created or confirmed.
	NamespacesEnsured = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vecstore",
			Subsystem: "namespace",
			Name:      "ensured_total",
			Help:      "Total number of namespaces ensured by this process",
		},
	)
)

func recordOperation(op string, start time.Time, err error) {
	OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	OperationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNamespaceNotReady):
		return "not_ready"
	case errors.Is(err, ErrInvalidKey), errors.Is(err, ErrInvalidVector),
		errors.Is(err, ErrInvalidTenant), errors.Is(err, ErrDimensionMismatch):
		return "invalid"
	default:
		return "unavailable"
	}
}
