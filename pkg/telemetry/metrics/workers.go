package metrics

import "github.com/prometheus/client_golang/prometheus"

// PoolStats is the view of a worker pool the metrics need.
// dispatch.Pool satisfies it.
type PoolStats interface {
	Pending() int
	InFlight() int64
	Completed() int64
}

// WorkerMetrics tracks background work.
//
// Metrics:
//   - altdetector_workers_queue_depth
//   - altdetector_workers_in_flight
//   - altdetector_workers_completed_total
//   - altdetector_joins_total{result}
type WorkerMetrics struct {
	cfg      Config
	registry *prometheus.Registry

	joinsTotal *prometheus.CounterVec
}

// NewWorkerMetrics creates and registers worker metrics. Pool gauges are
// added by RegisterPool.
func NewWorkerMetrics(cfg Config, registry *prometheus.Registry) *WorkerMetrics {
	wm := &WorkerMetrics{
		cfg:      cfg,
		registry: registry,
		joinsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "joins_total",
			Help:      "Processed join events by result",
		}, []string{"result"}),
	}
	registry.MustRegister(wm.joinsTotal)
	return wm
}

// RecordJoin counts a join event.
func (wm *WorkerMetrics) RecordJoin(result string) {
	wm.joinsTotal.WithLabelValues(result).Inc()
}

// RegisterPool registers gauges that read pool on every scrape.
func (wm *WorkerMetrics) RegisterPool(pool PoolStats) {
	wm.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: wm.cfg.Namespace,
			Subsystem: "workers",
			Name:      "queue_depth",
			Help:      "Tasks waiting for a worker",
		}, func() float64 { return float64(pool.Pending()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: wm.cfg.Namespace,
			Subsystem: "workers",
			Name:      "in_flight",
			Help:      "Tasks currently running",
		}, func() float64 { return float64(pool.InFlight()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: wm.cfg.Namespace,
			Subsystem: "workers",
			Name:      "completed_total",
			Help:      "Tasks finished since start",
		}, func() float64 { return float64(pool.Completed()) }),
	)
}
