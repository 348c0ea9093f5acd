package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Bobcat00/AltDetector/pkg/altdetect/storage"
	"github.com/Bobcat00/AltDetector/pkg/cli"
	"github.com/Bobcat00/AltDetector/pkg/config"
	"github.com/Bobcat00/AltDetector/pkg/telemetry/logging"
	"github.com/Bobcat00/AltDetector/pkg/telemetry/metrics"
)

// app is the state shared by every subcommand: configuration, logging,
// metrics and an initialized store.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Collector
	store   *storage.Engine
}

// loadConfig reads the config file with environment overrides and installs
// it as the global configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	if logLevel != "" {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return nil, cli.NewConfigError("log-level", err.Error())
		}
		cfg.Telemetry.Logging.Level = logLevel
	}
	config.SetConfig(cfg)
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.Install(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		RedactIPs: cfg.Telemetry.Logging.RedactIPs,
		Writer:    os.Stderr,
	})
}

func newCollector(cfg *config.Config) *metrics.Collector {
	return metrics.NewCollector(metrics.Config{
		Enabled:   cfg.Telemetry.Metrics.Enabled,
		Namespace: cfg.Telemetry.Metrics.Namespace,
	}, nil)
}

// openStore creates and initializes an engine for sc and logs the database
// and driver versions.
func openStore(ctx context.Context, sc *storage.Config, observer storage.Observer, logger *slog.Logger) (*storage.Engine, error) {
	engine, err := storage.New(sc)
	if err != nil {
		return nil, cli.NewConfigError("store", err.Error())
	}
	if observer != nil {
		engine.SetObserver(observer)
	}
	if err := engine.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", sc.Backend, err)
	}

	if diag, err := engine.Diagnostics(ctx); err == nil {
		logger.Info("database ready",
			"backend", diag.Backend,
			"version", diag.Version,
			"driver_version", diag.DriverVersion,
		)
	}
	return engine, nil
}

// bootstrap loads configuration, installs logging and opens the configured
// store. Callers must Close the returned app.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	collector := newCollector(cfg)
	store, err := openStore(ctx, cfg.StorageConfig(), collector, logger.Logger)
	if err != nil {
		return nil, err
	}

	if err := collector.RegisterDB(store.DB(), store.Backend()); err != nil {
		logger.Warn("database metrics unavailable", "error", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: collector,
		store:   store,
	}, nil
}

// Close releases the store.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close store", "error", err)
	}
}
