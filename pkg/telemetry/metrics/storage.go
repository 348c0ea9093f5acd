package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
)

// StorageMetrics tracks storage engine operations.
//
// Metrics:
//   - altdetector_storage_operations_total{backend,operation,status}
//   - altdetector_storage_operation_duration_seconds{backend,operation}
//   - altdetector_storage_purged_total{backend,kind}
//   - altdetector_storage_known_names{backend}
type StorageMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	purgedTotal       *prometheus.CounterVec
	knownNames        *prometheus.GaugeVec
}

// NewStorageMetrics creates and registers storage metrics.
func NewStorageMetrics(cfg Config, registry *prometheus.Registry) *StorageMetrics {
	sm := &StorageMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "storage",
				Name:      "operations_total",
				Help:      "Storage operations by outcome",
			},
			[]string{"backend", "operation", "status"},
		),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "storage",
				Name:      "operation_duration_seconds",
				Help:      "Duration of storage operations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"backend", "operation"},
		),

		purgedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "storage",
				Name:      "purged_total",
				Help:      "Rows removed by purges, by kind",
			},
			[]string{"backend", "kind"},
		),

		knownNames: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "storage",
				Name:      "known_names",
				Help:      "Number of distinct display names in the name cache",
			},
			[]string{"backend"},
		),
	}

	registry.MustRegister(
		sm.operationsTotal,
		sm.operationDuration,
		sm.purgedTotal,
		sm.knownNames,
	)

	return sm
}

// RecordOperation records one storage call.
func (sm *StorageMetrics) RecordOperation(backend, operation string, duration time.Duration, err error) {
	sm.operationsTotal.WithLabelValues(backend, operation, operationStatus(err)).Inc()
	sm.operationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordPurge adds removed rows of kind.
func (sm *StorageMetrics) RecordPurge(backend, kind string, removed int64) {
	if removed > 0 {
		sm.purgedTotal.WithLabelValues(backend, kind).Add(float64(removed))
	}
}

// SetKnownNames sets the name cache size.
func (sm *StorageMetrics) SetKnownNames(backend string, count int) {
	sm.knownNames.WithLabelValues(backend).Set(float64(count))
}

func operationStatus(err error) string {
	var argErr *altdetect.InvalidArgumentError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, altdetect.ErrNotFound):
		return "not_found"
	case errors.As(err, &argErr):
		return "invalid"
	default:
		return "error"
	}
}
