package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Bobcat00/AltDetector/pkg/altdetect/storage"
)

// Config contains configuration for the Collector.
type Config struct {
	// Enabled turns recording on. A disabled collector still exposes an
	// empty registry.
	Enabled bool

	// Namespace prefixes every metric name.
	// Default: "altdetector"
	Namespace string

	// DurationBuckets are the histogram buckets for storage operation
	// latency, in seconds.
	DurationBuckets []float64
}

// Collector owns the Prometheus registry and every AltDetector metric. It
// implements storage.Observer so an engine can report to it directly.
type Collector struct {
	config   Config
	registry *prometheus.Registry

	storage   *StorageMetrics
	retention *RetentionMetrics
	workers   *WorkerMetrics
}

var _ storage.Observer = (*Collector)(nil)

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil a new one is created.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "altdetector"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Local SQLite calls are sub-millisecond; remote MySQL calls can
		// take a second under load.
		cfg.DurationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.storage = NewStorageMetrics(cfg, registry)
	c.retention = NewRetentionMetrics(cfg, registry)
	c.workers = NewWorkerMetrics(cfg, registry)

	if cfg.Enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}),
		)
	}

	return c
}

// ObserveOperation implements storage.Observer.
func (c *Collector) ObserveOperation(backend, operation string, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}
	c.storage.RecordOperation(backend, operation, duration, err)
}

// ObservePurge implements storage.Observer.
func (c *Collector) ObservePurge(backend, kind string, removed int64) {
	if !c.config.Enabled {
		return
	}
	c.storage.RecordPurge(backend, kind, removed)
}

// SetKnownNames implements storage.Observer.
func (c *Collector) SetKnownNames(backend string, count int) {
	if !c.config.Enabled {
		return
	}
	c.storage.SetKnownNames(backend, count)
}

// SetRetention records the configured retention window.
func (c *Collector) SetRetention(days int) {
	if !c.config.Enabled {
		return
	}
	c.retention.SetWindow(days)
}

// RecordPrune records the outcome of a retention prune.
func (c *Collector) RecordPrune(trigger string, deleted int64, err error) {
	if !c.config.Enabled {
		return
	}
	c.retention.RecordPrune(trigger, deleted, err)
}

// RecordJoin records a processed join event. result is one of "alts",
// "clean" or "error".
func (c *Collector) RecordJoin(result string) {
	if !c.config.Enabled {
		return
	}
	c.workers.RecordJoin(result)
}

// RegisterPool exposes the queue depth and throughput of a worker pool.
func (c *Collector) RegisterPool(pool PoolStats) {
	if !c.config.Enabled {
		return
	}
	c.workers.RegisterPool(pool)
}

// RegisterDB exposes database/sql pool statistics for db.
func (c *Collector) RegisterDB(db *sql.DB, backend string) error {
	if !c.config.Enabled || db == nil {
		return nil
	}
	return c.registry.Register(collectors.NewDBStatsCollector(db, backend))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
