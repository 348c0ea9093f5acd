package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/Bobcat00/AltDetector/pkg/altdetect/retention"
	"github.com/Bobcat00/AltDetector/pkg/altdetect/storage"
)

// Accepted values for enumerated fields.
const (
	BackendSQLite = storage.BackendSQLite
	BackendMySQL  = storage.BackendMySQL

	DriverMattn   = storage.DriverMattn
	DriverModernc = storage.DriverModernc

	ConvertNone   = "none"
	ConvertYAML   = "yml"
	ConvertSQLite = BackendSQLite
	ConvertMySQL  = BackendMySQL
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "store.mysql.port").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the configuration and returns a ValidationError holding
// every problem found, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	switch {
	case cfg.ExpirationDays < 0:
		errs = append(errs, FieldError{"expiration_days", "must not be negative"})
	case cfg.ExpirationDays > retention.MaxRetentionDays:
		errs = append(errs, FieldError{"expiration_days", fmt.Sprintf("must be at most %d, got %d", retention.MaxRetentionDays, cfg.ExpirationDays)})
	}

	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateConversion(cfg)...)

	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{"retention.prune_schedule", fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}

	errs = append(errs, validateWorkers(&cfg.Workers)...)

	if cfg.Admin.Enabled {
		if msg := checkListenAddress(cfg.Admin.ListenAddress); msg != "" {
			errs = append(errs, FieldError{"admin.listen_address", msg})
		}
	}

	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateStore(s *StoreConfig) []FieldError {
	var errs []FieldError

	switch s.Backend {
	case BackendSQLite:
		if s.SQLite.Path == "" {
			errs = append(errs, FieldError{"store.sqlite.path", "is required"})
		}
		switch s.SQLite.Driver {
		case DriverMattn, DriverModernc:
		default:
			errs = append(errs, FieldError{"store.sqlite.driver", fmt.Sprintf("must be %q or %q, got %q", DriverMattn, DriverModernc, s.SQLite.Driver)})
		}
		if s.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{"store.sqlite.busy_timeout", "must not be negative"})
		}
	case BackendMySQL:
		errs = append(errs, validateMySQL(&s.MySQL)...)
	default:
		errs = append(errs, FieldError{"store.backend", fmt.Sprintf("must be %q or %q, got %q", BackendSQLite, BackendMySQL, s.Backend)})
	}

	return errs
}

func validateMySQL(m *MySQLConfig) []FieldError {
	var errs []FieldError

	if m.Host == "" {
		errs = append(errs, FieldError{"store.mysql.host", "is required"})
	}
	if m.Port < 1 || m.Port > 65535 {
		errs = append(errs, FieldError{"store.mysql.port", fmt.Sprintf("must be between 1 and 65535, got %d", m.Port)})
	}
	if m.Database == "" {
		errs = append(errs, FieldError{"store.mysql.database", "is required"})
	}
	if m.MaxOpenConns < 2 {
		errs = append(errs, FieldError{"store.mysql.max_open_conns", fmt.Sprintf("must be at least 2, got %d", m.MaxOpenConns)})
	}
	if m.MaxIdleConns < 0 {
		errs = append(errs, FieldError{"store.mysql.max_idle_conns", "must not be negative"})
	}
	if m.ConnMaxLifetime < 0 {
		errs = append(errs, FieldError{"store.mysql.conn_max_lifetime", "must not be negative"})
	}

	return errs
}

func validateConversion(cfg *Config) []FieldError {
	var errs []FieldError

	switch cfg.ConvertFrom {
	case ConvertNone:
	case ConvertYAML:
		if cfg.LegacyFile == "" {
			errs = append(errs, FieldError{"legacy_file", "is required when convert_from is yml"})
		}
	case ConvertSQLite, ConvertMySQL:
		if cfg.ConvertFrom == cfg.Store.Backend {
			errs = append(errs, FieldError{"convert_from", fmt.Sprintf("cannot convert from %q to itself", cfg.ConvertFrom)})
		}
	default:
		errs = append(errs, FieldError{"convert_from", fmt.Sprintf("must be one of none, yml, sqlite, mysql, got %q", cfg.ConvertFrom)})
	}

	return errs
}

func validateWorkers(w *WorkersConfig) []FieldError {
	var errs []FieldError

	if w.Size < 1 {
		errs = append(errs, FieldError{"workers.size", fmt.Sprintf("must be at least 1, got %d", w.Size)})
	}
	if w.Queue < 0 {
		errs = append(errs, FieldError{"workers.queue", "must not be negative"})
	}
	if w.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{"workers.shutdown_timeout", "must not be negative"})
	}

	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(t.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("must be one of debug, info, warn, error, got %q", t.Logging.Level)})
	}

	switch strings.ToLower(t.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("must be json or text, got %q", t.Logging.Format)})
	}

	if t.Metrics.Enabled && t.Metrics.Namespace == "" {
		errs = append(errs, FieldError{"telemetry.metrics.namespace", "is required when metrics are enabled"})
	}

	return errs
}

// checkListenAddress returns a message describing what is wrong with addr,
// or "" when it is a usable host:port.
func checkListenAddress(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Sprintf("must be host:port: %v", err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Sprintf("invalid port %q", port)
	}
	return ""
}
