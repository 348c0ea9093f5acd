package storage

import (
	"fmt"
	"time"
)

// Backend selectors accepted by New.
const (
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// SQLite driver selectors.
const (
	DriverMattn   = "mattn"
	DriverModernc = "modernc"
)

// Config selects and configures a storage backend.
type Config struct {
	// Backend is "sqlite" or "mysql".
	// Default: "sqlite"
	Backend string

	// SQLDebug logs every executed statement.
	SQLDebug bool

	SQLite *SQLiteConfig
	MySQL  *MySQLConfig
}

// SQLiteConfig contains configuration for the embedded backend.
type SQLiteConfig struct {
	// Path is the database file path. The file and its directory are
	// created if absent.
	Path string

	// Driver is "mattn" (cgo) or "modernc" (pure Go).
	// Default: "mattn"
	Driver string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// MySQLConfig contains configuration for the networked backend.
type MySQLConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string

	// Prefix is prepended to every table name.
	Prefix string

	// Properties are extra driver parameters appended to the DSN.
	Properties map[string]string

	// Default: 10
	MaxOpenConns int

	// Default: 10
	MaxIdleConns int

	// Default: 30 minutes
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendSQLite,
		SQLite:  DefaultSQLiteConfig(),
		MySQL:   DefaultMySQLConfig(),
	}
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "data/altdetector.db",
		Driver:      DriverMattn,
		BusyTimeout: 5 * time.Second,
	}
}

// DefaultMySQLConfig returns the default MySQL configuration.
func DefaultMySQLConfig() *MySQLConfig {
	return &MySQLConfig{
		Host:            "127.0.0.1",
		Port:            3306,
		Username:        "username",
		Password:        "password",
		Database:        "database",
		Prefix:          "altdetector_",
		Properties:      map[string]string{},
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// New builds an uninitialized engine for the configured backend.
// Call Initialize before using it.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case "", BackendSQLite:
		sc := cfg.SQLite
		if sc == nil {
			sc = DefaultSQLiteConfig()
		}
		return NewEngine(EngineConfig{
			Provider: NewSQLiteProvider(sc),
			SQLDebug: cfg.SQLDebug,
		}), nil
	case BackendMySQL:
		mc := cfg.MySQL
		if mc == nil {
			mc = DefaultMySQLConfig()
		}
		return NewEngine(EngineConfig{
			Provider: NewMySQLProvider(mc),
			Prefix:   mc.Prefix,
			SQLDebug: cfg.SQLDebug,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
