// Package metrics exposes AltDetector's Prometheus metrics.
//
// A Collector implements storage.Observer, so wiring it into the engine is
// enough to get per-operation counters and latency histograms:
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
//	engine.SetObserver(collector)
//	collector.RegisterDB(engine.DB(), engine.Backend())
//	collector.RegisterPool(pool)
//	http.Handle("/metrics", collector.Handler())
//
// All metric names are prefixed with the configured namespace
// (default "altdetector").
package metrics
