package config

import (
	"maps"

	"github.com/Bobcat00/AltDetector/pkg/altdetect/detector"
	"github.com/Bobcat00/AltDetector/pkg/altdetect/retention"
	"github.com/Bobcat00/AltDetector/pkg/altdetect/storage"
	"github.com/Bobcat00/AltDetector/pkg/dispatch"
)

// StorageConfig returns the storage settings for the configured backend.
func (c *Config) StorageConfig() *storage.Config {
	return c.storageConfig(c.Store.Backend)
}

// SourceStorageConfig returns the storage settings for reading backend, used
// as the source of a conversion.
func (c *Config) SourceStorageConfig(backend string) *storage.Config {
	return c.storageConfig(backend)
}

func (c *Config) storageConfig(backend string) *storage.Config {
	s := c.Store
	return &storage.Config{
		Backend:  backend,
		SQLDebug: s.SQLDebug,
		SQLite: &storage.SQLiteConfig{
			Path:        s.SQLite.Path,
			Driver:      s.SQLite.Driver,
			BusyTimeout: s.SQLite.BusyTimeout,
		},
		MySQL: &storage.MySQLConfig{
			Host:            s.MySQL.Host,
			Port:            s.MySQL.Port,
			Username:        s.MySQL.Username,
			Password:        s.MySQL.Password,
			Database:        s.MySQL.Database,
			Prefix:          s.MySQL.Prefix,
			Properties:      maps.Clone(s.MySQL.Properties),
			MaxOpenConns:    s.MySQL.MaxOpenConns,
			MaxIdleConns:    s.MySQL.MaxIdleConns,
			ConnMaxLifetime: s.MySQL.ConnMaxLifetime,
		},
	}
}

// RetentionConfig returns the pruner settings.
func (c *Config) RetentionConfig() *retention.Config {
	return &retention.Config{
		RetentionDays: c.ExpirationDays,
		PruneSchedule: c.Retention.PruneSchedule,
	}
}

// DetectorConfig returns the window and templates used for join notices and
// command replies.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		Window:  retention.Window(c.ExpirationDays),
		Join:    c.Messages.Join,
		Command: c.Messages.Command,
	}
}

// PoolConfig returns the worker pool settings.
func (c *Config) PoolConfig() *dispatch.Config {
	cfg := dispatch.DefaultConfig()
	cfg.Workers = c.Workers.Size
	cfg.QueueSize = c.Workers.Queue
	return cfg
}
