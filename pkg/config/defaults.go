package config

import (
	"time"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
)

// Default values for configuration fields.
const (
	DefaultExpirationDays = 60
	DefaultConvertFrom    = ConvertNone
	DefaultLegacyFile     = "ipdata.yml"

	// Store defaults
	DefaultStoreBackend      = BackendSQLite
	DefaultSQLitePath        = "data/altdetector.db"
	DefaultSQLiteDriver      = DriverMattn
	DefaultSQLiteBusyTimeout = 5 * time.Second

	DefaultMySQLHost            = "127.0.0.1"
	DefaultMySQLPort            = 3306
	DefaultMySQLPrefix          = "altdetector_"
	DefaultMySQLMaxOpenConns    = 10
	DefaultMySQLMaxIdleConns    = 10
	DefaultMySQLConnMaxLifetime = 30 * time.Minute

	// Retention defaults
	DefaultPruneSchedule = "0 3 * * *"

	// Worker defaults
	DefaultWorkerSize            = 4
	DefaultWorkerQueue           = 256
	DefaultWorkerShutdownTimeout = 5 * time.Second

	// Admin defaults
	DefaultAdminEnabled       = false
	DefaultAdminListenAddress = "127.0.0.1:9464"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "altdetector"
)

// Message defaults.
const (
	DefaultJoinPrefix             = "[AltDetector] "
	DefaultPlayerTemplate         = "{0} may be an alt of "
	DefaultPlayerListTemplate     = "{0}"
	DefaultSeparator              = ", "
	DefaultNoAltsMessage          = "No alts found"
	DefaultPlayerNoAltsMessage    = "{0} has no known alts"
	DefaultPlayerNotFoundMessage  = "{0} not found"
	DefaultRemovedSingularMessage = "Removed {0} record"
	DefaultRemovedPluralMessage   = "Removed {0} records"
)

// DefaultConfig returns a configuration with every default applied. Loading
// decodes the file over this value, so keys absent from the file keep their
// defaults and explicit zero values are respected.
func DefaultConfig() *Config {
	cfg := &Config{
		ExpirationDays: DefaultExpirationDays,
		Admin:          AdminConfig{Enabled: DefaultAdminEnabled},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for any fields that have zero values. Numeric
// fields where zero is meaningful, such as ExpirationDays, are left alone.
// It is idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.ConvertFrom == "" {
		cfg.ConvertFrom = DefaultConvertFrom
	}
	if cfg.LegacyFile == "" {
		cfg.LegacyFile = DefaultLegacyFile
	}

	// Store defaults
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Store.SQLite.Driver == "" {
		cfg.Store.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Store.SQLite.BusyTimeout == 0 {
		cfg.Store.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	mysql := &cfg.Store.MySQL
	if mysql.Host == "" {
		mysql.Host = DefaultMySQLHost
	}
	if mysql.Port == 0 {
		mysql.Port = DefaultMySQLPort
	}
	if mysql.Prefix == "" {
		mysql.Prefix = DefaultMySQLPrefix
	}
	if mysql.MaxOpenConns == 0 {
		mysql.MaxOpenConns = DefaultMySQLMaxOpenConns
	}
	if mysql.MaxIdleConns == 0 {
		mysql.MaxIdleConns = DefaultMySQLMaxIdleConns
	}
	if mysql.ConnMaxLifetime == 0 {
		mysql.ConnMaxLifetime = DefaultMySQLConnMaxLifetime
	}

	if cfg.Retention.PruneSchedule == "" {
		cfg.Retention.PruneSchedule = DefaultPruneSchedule
	}

	applyMessageDefaults(&cfg.Messages)

	// Worker defaults
	if cfg.Workers.Size == 0 {
		cfg.Workers.Size = DefaultWorkerSize
	}
	if cfg.Workers.Queue == 0 {
		cfg.Workers.Queue = DefaultWorkerQueue
	}
	if cfg.Workers.ShutdownTimeout == 0 {
		cfg.Workers.ShutdownTimeout = DefaultWorkerShutdownTimeout
	}

	if cfg.Admin.ListenAddress == "" {
		cfg.Admin.ListenAddress = DefaultAdminListenAddress
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// applyMessageDefaults fills empty templates. The join prefix and the
// separators may legitimately be empty, so those are only defaulted on a
// completely empty section.
func applyMessageDefaults(m *MessagesConfig) {
	if m.Join == (altdetect.JoinMessages{}) {
		m.Join.Prefix = DefaultJoinPrefix
		m.Join.Separator = DefaultSeparator
	}
	applyTemplateDefaults(&m.Join.Templates)

	if m.Command == (altdetect.CommandMessages{}) {
		m.Command.Separator = DefaultSeparator
	}
	applyTemplateDefaults(&m.Command.Templates)

	c := &m.Command
	if c.NoAlts == "" {
		c.NoAlts = DefaultNoAltsMessage
	}
	if c.PlayerNoAlts == "" {
		c.PlayerNoAlts = DefaultPlayerNoAltsMessage
	}
	if c.PlayerNotFound == "" {
		c.PlayerNotFound = DefaultPlayerNotFoundMessage
	}
	if c.RemovedSingular == "" {
		c.RemovedSingular = DefaultRemovedSingularMessage
	}
	if c.RemovedPlural == "" {
		c.RemovedPlural = DefaultRemovedPluralMessage
	}
}

func applyTemplateDefaults(t *altdetect.Templates) {
	if t.Player == "" {
		t.Player = DefaultPlayerTemplate
	}
	if t.PlayerList == "" {
		t.PlayerList = DefaultPlayerListTemplate
	}
}
