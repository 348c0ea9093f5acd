package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/Bobcat00/AltDetector/pkg/altdetect/dialect"
)

// Provider opens the connection pool for one backend and enforces its pool
// discipline.
type Provider interface {
	// Dialect returns the SQL dialect of the backend.
	Dialect() dialect.Dialect

	// Open opens the pool. The returned pool may not have connected yet.
	Open(ctx context.Context) (*sql.DB, error)

	// Check verifies connection settings after the first successful ping.
	Check(ctx context.Context, db *sql.DB) error

	// DriverVersion describes the database/sql driver in use.
	DriverVersion() string

	// CacheStatements reports whether repeated query shapes should be
	// prepared once and reused.
	CacheStatements() bool

	// Describe returns a loggable description of the target, without
	// credentials.
	Describe() string
}

// SQLiteProvider is the embedded file-backed provider. It keeps exactly one
// open connection, which serializes every reader and writer.
type SQLiteProvider struct {
	config *SQLiteConfig
}

// NewSQLiteProvider creates a SQLite provider.
func NewSQLiteProvider(config *SQLiteConfig) *SQLiteProvider {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	return &SQLiteProvider{config: config}
}

// Dialect implements Provider.
func (p *SQLiteProvider) Dialect() dialect.Dialect {
	return dialect.SQLite
}

// driverName maps the configured driver to its database/sql name.
func (p *SQLiteProvider) driverName() string {
	if p.config.Driver == DriverModernc {
		return "sqlite"
	}
	return "sqlite3"
}

// DSN returns the data source name. Foreign keys are enabled in the DSN so
// that every connection the pool opens enforces them.
func (p *SQLiteProvider) DSN() string {
	busyMs := p.config.BusyTimeout.Milliseconds()
	if p.config.Driver == DriverModernc {
		return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", p.config.Path, busyMs)
	}
	return fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d", p.config.Path, busyMs)
}

// Open implements Provider.
func (p *SQLiteProvider) Open(ctx context.Context) (*sql.DB, error) {
	if p.config.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if dir := filepath.Dir(p.config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(p.driverName(), p.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// Check implements Provider. SQLite ships with foreign keys disabled, and
// without them the sighting cascade does not fire.
func (p *SQLiteProvider) Check(ctx context.Context, db *sql.DB) error {
	var enabled int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("failed to read foreign_keys pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("foreign key enforcement is disabled")
	}
	return nil
}

// DriverVersion implements Provider.
func (p *SQLiteProvider) DriverVersion() string {
	if p.config.Driver == DriverModernc {
		return "modernc.org/sqlite " + moduleVersion("modernc.org/sqlite")
	}
	return "github.com/mattn/go-sqlite3 " + moduleVersion("github.com/mattn/go-sqlite3")
}

// CacheStatements implements Provider.
func (p *SQLiteProvider) CacheStatements() bool {
	return false
}

// Describe implements Provider.
func (p *SQLiteProvider) Describe() string {
	return p.config.Path
}

// MySQLProvider is the networked provider. It uses a bounded pool sized for
// concurrent background workers and caches prepared statements.
type MySQLProvider struct {
	config *MySQLConfig
}

// NewMySQLProvider creates a MySQL provider.
func NewMySQLProvider(config *MySQLConfig) *MySQLProvider {
	if config == nil {
		config = DefaultMySQLConfig()
	}
	return &MySQLProvider{config: config}
}

// Dialect implements Provider.
func (p *MySQLProvider) Dialect() dialect.Dialect {
	return dialect.MySQL
}

// DSN returns the driver data source name built from the configuration.
func (p *MySQLProvider) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = p.config.Username
	cfg.Passwd = p.config.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(p.config.Host, strconv.Itoa(p.config.Port))
	cfg.DBName = p.config.Database
	if len(p.config.Properties) > 0 {
		cfg.Params = make(map[string]string, len(p.config.Properties))
		for k, v := range p.config.Properties {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN()
}

// Open implements Provider.
func (p *MySQLProvider) Open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("mysql", p.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(p.config.MaxOpenConns)
	db.SetMaxIdleConns(p.config.MaxIdleConns)
	db.SetConnMaxLifetime(p.config.ConnMaxLifetime)

	return db, nil
}

// Check implements Provider.
func (p *MySQLProvider) Check(ctx context.Context, db *sql.DB) error {
	var enabled int
	if err := db.QueryRowContext(ctx, "SELECT @@foreign_key_checks").Scan(&enabled); err != nil {
		return fmt.Errorf("failed to read foreign_key_checks: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("foreign key checks are disabled")
	}
	return nil
}

// DriverVersion implements Provider.
func (p *MySQLProvider) DriverVersion() string {
	return "github.com/go-sql-driver/mysql " + moduleVersion("github.com/go-sql-driver/mysql")
}

// CacheStatements implements Provider.
func (p *MySQLProvider) CacheStatements() bool {
	return true
}

// Describe implements Provider.
func (p *MySQLProvider) Describe() string {
	return fmt.Sprintf("%s@%s/%s", p.config.Username,
		net.JoinHostPort(p.config.Host, strconv.Itoa(p.config.Port)), p.config.Database)
}

// moduleVersion returns the version of a dependency linked into the binary.
func moduleVersion(path string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(unknown)"
	}
	for _, dep := range info.Deps {
		if dep.Path == path {
			if dep.Replace != nil {
				return dep.Replace.Version
			}
			return dep.Version
		}
	}
	return "(unknown)"
}
