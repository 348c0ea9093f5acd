package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Bobcat00/AltDetector/pkg/altdetect/retention"
)

var expirationBuckets = []string{"0", "1-30", "31-60", "61-90", ">90"}

// RetentionMetrics tracks the retention window and pruning.
//
// Metrics:
//   - altdetector_retention_days
//   - altdetector_retention_window{bucket}: 1 for the bucket the window falls in
//   - altdetector_retention_prunes_total{trigger,status}
//   - altdetector_retention_pruned_sightings_total{trigger}
type RetentionMetrics struct {
	days           prometheus.Gauge
	window         *prometheus.GaugeVec
	prunesTotal    *prometheus.CounterVec
	prunedSighting *prometheus.CounterVec
}

// NewRetentionMetrics creates and registers retention metrics.
func NewRetentionMetrics(cfg Config, registry *prometheus.Registry) *RetentionMetrics {
	rm := &RetentionMetrics{
		days: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "retention",
			Name:      "days",
			Help:      "Configured retention window in days",
		}),
		window: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "retention",
			Name:      "window",
			Help:      "Retention window bucket; the current bucket is 1",
		}, []string{"bucket"}),
		prunesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "retention",
			Name:      "prunes_total",
			Help:      "Retention prunes by trigger and outcome",
		}, []string{"trigger", "status"}),
		prunedSighting: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "retention",
			Name:      "pruned_sightings_total",
			Help:      "Sightings removed by retention prunes",
		}, []string{"trigger"}),
	}

	registry.MustRegister(rm.days, rm.window, rm.prunesTotal, rm.prunedSighting)
	return rm
}

// SetWindow records the retention window and its bucket.
func (rm *RetentionMetrics) SetWindow(days int) {
	rm.days.Set(float64(days))
	current := retention.ExpirationBucket(days)
	for _, b := range expirationBuckets {
		v := 0.0
		if b == current {
			v = 1
		}
		rm.window.WithLabelValues(b).Set(v)
	}
}

// RecordPrune records one prune. trigger is "startup", "schedule" or
// "command".
func (rm *RetentionMetrics) RecordPrune(trigger string, deleted int64, err error) {
	if err != nil {
		rm.prunesTotal.WithLabelValues(trigger, "error").Inc()
		return
	}
	rm.prunesTotal.WithLabelValues(trigger, "success").Inc()
	rm.prunedSighting.WithLabelValues(trigger).Add(float64(deleted))
}
