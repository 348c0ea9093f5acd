package config

import (
	"time"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
)

// Config is the root configuration structure for AltDetector.
//
// Every field can be set in the YAML file; the fields tagged with env can
// also be overridden by ALTDETECTOR_-prefixed environment variables.
type Config struct {
	// ExpirationDays is the retention window. Sightings older than this are
	// purged at startup and on the prune schedule, and are ignored when
	// correlating. Zero expires everything.
	// Default: 60
	ExpirationDays int `yaml:"expiration_days" env:"EXPIRATION_DAYS"`

	// Store selects and configures the storage backend.
	Store StoreConfig `yaml:"store"`

	// ConvertFrom requests a one-time import into the configured backend at
	// startup: "none", "yml", "sqlite" or "mysql". It is reset to "none"
	// after a successful conversion.
	// Default: "none"
	ConvertFrom string `yaml:"convert_from" env:"CONVERT_FROM"`

	// LegacyFile is the legacy ipdata.yml imported when ConvertFrom is "yml".
	// Default: "ipdata.yml"
	LegacyFile string `yaml:"legacy_file" env:"LEGACY_FILE"`

	// Retention configures periodic pruning.
	Retention RetentionConfig `yaml:"retention" envPrefix:"RETENTION_"`

	// Messages contains the templates for join notices and command replies.
	Messages MessagesConfig `yaml:"messages"`

	// Workers sizes the background pool that runs storage work.
	Workers WorkersConfig `yaml:"workers" envPrefix:"WORKERS_"`

	// Admin configures the optional admin HTTP server.
	Admin AdminConfig `yaml:"admin" envPrefix:"ADMIN_"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	// Backend is "sqlite" or "mysql".
	// Default: "sqlite"
	Backend string `yaml:"backend" env:"STORE_BACKEND"`

	// SQLDebug logs every executed statement at info level.
	SQLDebug bool `yaml:"sql_debug" env:"STORE_SQL_DEBUG"`

	SQLite SQLiteConfig `yaml:"sqlite" envPrefix:"SQLITE_"`
	MySQL  MySQLConfig  `yaml:"mysql" envPrefix:"MYSQL_"`
}

// SQLiteConfig configures the embedded backend.
type SQLiteConfig struct {
	// Path is the database file. Parent directories are created.
	// Default: "data/altdetector.db"
	Path string `yaml:"path" env:"PATH"`

	// Driver is "mattn" (cgo) or "modernc" (pure Go).
	// Default: "mattn"
	Driver string `yaml:"driver" env:"DRIVER"`

	// BusyTimeout is how long a connection waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"BUSY_TIMEOUT"`
}

// MySQLConfig configures the networked backend.
type MySQLConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
	Database string `yaml:"database" env:"DATABASE"`

	// Prefix is prepended to every table name.
	// Default: "altdetector_"
	Prefix string `yaml:"prefix" env:"PREFIX"`

	// Properties are extra DSN parameters passed to the driver unchanged.
	Properties map[string]string `yaml:"properties"`

	// Pool settings. MaxOpenConns must be at least 2 because a sighting
	// write holds a transaction while the pool serves other callers.
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// RetentionConfig configures the periodic pruner.
type RetentionConfig struct {
	// PruneSchedule is a standard five-field cron expression. Empty disables
	// periodic pruning; the startup purge still runs.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule" env:"PRUNE_SCHEDULE"`
}

// MessagesConfig holds every user-facing template.
type MessagesConfig struct {
	Join    altdetect.JoinMessages    `yaml:"join"`
	Command altdetect.CommandMessages `yaml:"command"`
}

// WorkersConfig sizes the dispatch pool.
type WorkersConfig struct {
	// Size is the number of workers.
	// Default: 4
	Size int `yaml:"size" env:"SIZE"`

	// Queue is the number of tasks buffered ahead of the workers.
	// Default: 256
	Queue int `yaml:"queue" env:"QUEUE"`

	// ShutdownTimeout bounds the drain of in-flight work on exit.
	// Default: 5s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// AdminConfig configures the admin HTTP server.
type AdminConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// ListenAddress is "host:port".
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address" env:"LISTEN_ADDRESS"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOGGING_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level" env:"LEVEL"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format" env:"FORMAT"`

	// RedactIPs masks IP addresses in log attributes.
	RedactIPs bool `yaml:"redact_ips" env:"REDACT_IPS"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Namespace prefixes every metric name.
	// Default: "altdetector"
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}
