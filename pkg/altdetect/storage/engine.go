package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
	"github.com/Bobcat00/AltDetector/pkg/altdetect/dialect"
)

// Observer receives operation outcomes, typically a metrics collector.
type Observer interface {
	ObserveOperation(backend, operation string, duration time.Duration, err error)
	ObservePurge(backend, kind string, removed int64)
	SetKnownNames(backend string, count int)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, time.Duration, error) {}
func (nopObserver) ObservePurge(string, string, int64)                    {}
func (nopObserver) SetKnownNames(string, int)                             {}

// EngineConfig wires an engine to its provider.
type EngineConfig struct {
	Provider Provider

	// Prefix is prepended to every table name.
	Prefix string

	// SQLDebug logs every executed statement.
	SQLDebug bool

	// Observer is notified after every operation. Optional.
	Observer Observer

	// Logger overrides the component logger. Optional.
	Logger *slog.Logger
}

// Engine implements altdetect.Store on top of database/sql. Backend
// differences are confined to the provider and its dialect.
type Engine struct {
	provider Provider
	dialect  dialect.Dialect
	prefix   string
	stmts    dialect.Statements
	names    *NameCache
	observer Observer
	logger   *slog.Logger
	debug    atomic.Bool

	mu sync.RWMutex
	db *sql.DB

	stmtMu        sync.Mutex
	preparedStmts map[string]*sql.Stmt
}

var _ altdetect.Store = (*Engine)(nil)

// NewEngine creates an engine. It does not connect; call Initialize.
func NewEngine(cfg EngineConfig) *Engine {
	d := cfg.Provider.Dialect()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "altdetect.storage")
	}
	logger = logger.With("backend", d.Name)

	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	e := &Engine{
		provider:      cfg.Provider,
		dialect:       d,
		prefix:        cfg.Prefix,
		stmts:         d.Render(cfg.Prefix),
		names:         NewNameCache(),
		observer:      observer,
		logger:        logger,
		preparedStmts: make(map[string]*sql.Stmt),
	}
	e.debug.Store(cfg.SQLDebug)
	return e
}

// SetObserver replaces the observer. Call before Initialize.
func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
}

// SetSQLDebug toggles statement logging at runtime.
func (e *Engine) SetSQLDebug(enabled bool) {
	e.debug.Store(enabled)
}

// DB returns the connection pool, or nil before Initialize and after Close.
// It is exposed for pool statistics.
func (e *Engine) DB() *sql.DB {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db
}

// Backend implements altdetect.Store.
func (e *Engine) Backend() string {
	return e.dialect.Name
}

// Initialize implements altdetect.Store. Calling it on an initialized engine
// is a no-op.
func (e *Engine) Initialize(ctx context.Context) (err error) {
	defer e.observe("initialize", time.Now(), &err)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db != nil {
		return nil
	}

	db, err := e.provider.Open(ctx)
	if err != nil {
		return e.fail("open", err)
	}

	if err := e.initialize(ctx, db); err != nil {
		db.Close()
		return err
	}

	e.db = db
	e.logger.Info("storage initialized",
		"target", e.provider.Describe(),
		"prefix", e.prefix,
	)
	return nil
}

// initialize connects and creates the schema.
func (e *Engine) initialize(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return e.fail("connect", err)
	}

	if err := e.provider.Check(ctx, db); err != nil {
		return e.fail("check_connection", err)
	}

	for _, ddl := range e.stmts.Schema {
		e.logStatement(ddl)
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return e.fail("create_schema", err)
		}
	}
	e.logger.Debug("database schema created")

	e.logStatement(e.stmts.InsertSchemaVersion)
	if _, err := db.ExecContext(ctx, e.stmts.InsertSchemaVersion, dialect.SchemaVersion); err != nil {
		return e.fail("insert_schema_version", err)
	}

	var version int
	err := db.QueryRowContext(ctx, e.stmts.GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return e.fail("get_schema_version", err)
	}
	if version != dialect.SchemaVersion {
		return e.fail("schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", dialect.SchemaVersion, version))
	}
	e.logger.Debug("schema version verified", "version", version)

	return e.prepareStatements(ctx, db)
}

// prepareStatements prepares every runtime statement when the provider
// caches them. Lookups never prepare later, so a transaction holding a
// pooled connection never waits on the pool for a second one.
func (e *Engine) prepareStatements(ctx context.Context, db *sql.DB) error {
	if !e.provider.CacheStatements() {
		return nil
	}

	e.stmtMu.Lock()
	defer e.stmtMu.Unlock()

	for _, query := range e.stmts.Runtime() {
		if _, ok := e.preparedStmts[query]; ok {
			continue
		}
		stmt, err := db.PrepareContext(ctx, query)
		if err != nil {
			for q, s := range e.preparedStmts {
				s.Close()
				delete(e.preparedStmts, q)
			}
			return e.fail("prepare_statements", err)
		}
		e.preparedStmts[query] = stmt
	}
	e.logger.Debug("statements prepared", "count", len(e.preparedStmts))
	return nil
}

// UpsertIdentity implements altdetect.Store.
func (e *Engine) UpsertIdentity(ctx context.Context, name, stableID string) (err error) {
	defer e.observe("upsert_identity", time.Now(), &err)

	if stableID == "" {
		return e.fail("upsert_identity", altdetect.NewInvalidArgumentError("stable id", "must not be empty"))
	}
	if name == "" {
		return e.fail("upsert_identity", altdetect.NewInvalidArgumentError("name", "must not be empty"))
	}

	db, err := e.conn()
	if err != nil {
		return err
	}

	id, current, found, err := e.selectIdentity(ctx, db, stableID)
	if err != nil {
		return e.fail("select_identity", err)
	}

	if !found {
		_, insertErr := e.exec(ctx, db, e.stmts.InsertIdentity, stableID, name)
		if insertErr == nil {
			e.addName(name)
			return nil
		}
		// A concurrent upsert may have created the row first.
		id, current, found, err = e.selectIdentity(ctx, db, stableID)
		if err != nil || !found {
			return e.fail("insert_identity", insertErr)
		}
	}

	if current != name {
		if _, err := e.exec(ctx, db, e.stmts.UpdateIdentity, name, id); err != nil {
			return e.fail("update_identity", err)
		}
		e.logger.Debug("identity renamed", "stable_id", stableID, "old_name", current, "new_name", name)
	}

	e.addName(name)
	return nil
}

func (e *Engine) selectIdentity(ctx context.Context, db *sql.DB, stableID string) (id int64, name string, found bool, err error) {
	err = e.queryRow(ctx, db, e.stmts.SelectIdentity, stableID).Scan(&id, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", false, nil
	}
	if err != nil {
		return 0, "", false, err
	}
	return id, name, true, nil
}

// RecordSighting implements altdetect.Store.
func (e *Engine) RecordSighting(ctx context.Context, ip, stableID string) (err error) {
	defer e.observe("record_sighting", time.Now(), &err)
	return e.recordSighting(ctx, "record_sighting", ip, stableID, nil)
}

// RecordSightingAt implements altdetect.Store.
func (e *Engine) RecordSightingAt(ctx context.Context, ip, stableID string, at time.Time) (err error) {
	defer e.observe("record_sighting_at", time.Now(), &err)
	return e.recordSighting(ctx, "record_sighting_at", ip, stableID, &at)
}

// recordSighting updates or inserts the (ip, identity) row inside one
// transaction, stamping it with now or with at when given.
func (e *Engine) recordSighting(ctx context.Context, op, ip, stableID string, at *time.Time) error {
	if ip == "" {
		return e.fail(op, altdetect.NewInvalidArgumentError("ip address", "must not be empty"))
	}
	if stableID == "" {
		return e.fail(op, altdetect.NewInvalidArgumentError("stable id", "must not be empty"))
	}

	db, err := e.conn()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return e.fail(op, err)
	}
	defer tx.Rollback()

	var identityID int64
	err = e.txQueryRow(ctx, tx, e.stmts.SelectIdentityID, stableID).Scan(&identityID)
	if errors.Is(err, sql.ErrNoRows) {
		return e.fail(op, fmt.Errorf("%w: %s", altdetect.ErrNotFound, stableID))
	}
	if err != nil {
		return e.fail(op, err)
	}

	var exists int
	err = e.txQueryRow(ctx, tx, e.stmts.SightingExists, ip, identityID).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if at == nil {
			_, err = e.txExec(ctx, tx, e.stmts.InsertSighting, ip, identityID)
		} else {
			_, err = e.txExec(ctx, tx, e.stmts.InsertSightingAt, ip, identityID, at.Unix())
		}
	case err != nil:
		return e.fail(op, err)
	default:
		if at == nil {
			_, err = e.txExec(ctx, tx, e.stmts.UpdateSighting, ip, identityID)
		} else {
			_, err = e.txExec(ctx, tx, e.stmts.UpdateSightingAt, at.Unix(), ip, identityID, at.Unix())
		}
	}
	if err != nil {
		return e.fail(op, err)
	}

	if err := tx.Commit(); err != nil {
		return e.fail(op, err)
	}
	return nil
}

// FindCorrelatedNames implements altdetect.Store.
func (e *Engine) FindCorrelatedNames(ctx context.Context, stableID, excludeID string, window time.Duration) (names []string, err error) {
	defer e.observe("find_correlated_names", time.Now(), &err)

	db, err := e.conn()
	if err != nil {
		return nil, err
	}

	cutoff := e.dialect.CutoffArg(dialect.WindowSeconds(window))
	rows, err := e.query(ctx, db, e.stmts.SelectCorrelated, stableID, excludeID, cutoff)
	if err != nil {
		return nil, e.fail("find_correlated_names", err)
	}
	defer rows.Close()

	names, err = scanStrings(rows)
	if err != nil {
		return nil, e.fail("find_correlated_names", err)
	}
	return names, nil
}

// PurgeExpired implements altdetect.Store.
func (e *Engine) PurgeExpired(ctx context.Context, window time.Duration) (removed int64, err error) {
	defer e.observe("purge_expired", time.Now(), &err)

	db, err := e.conn()
	if err != nil {
		return 0, err
	}

	cutoff := e.dialect.CutoffArg(dialect.WindowSeconds(window))
	result, err := e.exec(ctx, db, e.stmts.PurgeSightings, cutoff)
	if err != nil {
		return 0, e.fail("purge_sightings", err)
	}
	sightings, err := result.RowsAffected()
	if err != nil {
		return 0, e.fail("purge_sightings", err)
	}
	e.logger.Debug("sightings purged", "count", sightings)

	result, err = e.exec(ctx, db, e.stmts.PurgeOrphans)
	if err != nil {
		return sightings, e.fail("purge_identities", err)
	}
	identities, err := result.RowsAffected()
	if err != nil {
		return sightings, e.fail("purge_identities", err)
	}
	e.logger.Debug("identities purged", "count", identities)

	e.observer.ObservePurge(e.dialect.Name, "sightings", sightings)
	e.observer.ObservePurge(e.dialect.Name, "identities", identities)

	if identities > 0 {
		if err := e.RebuildNameCache(ctx); err != nil {
			e.logger.Warn("name cache not refreshed after purge", "error", err)
		}
	}

	return sightings, nil
}

// PurgeByName implements altdetect.Store. Every identity matching name
// case-insensitively is removed.
func (e *Engine) PurgeByName(ctx context.Context, name string) (removed int64, err error) {
	defer e.observe("purge_by_name", time.Now(), &err)

	db, err := e.conn()
	if err != nil {
		return 0, err
	}

	result, err := e.exec(ctx, db, e.stmts.PurgeByName, name)
	if err != nil {
		return 0, e.fail("purge_by_name", err)
	}
	removed, err = result.RowsAffected()
	if err != nil {
		return 0, e.fail("purge_by_name", err)
	}

	if removed > 0 {
		e.names.Remove(name)
		e.observer.SetKnownNames(e.dialect.Name, e.names.Len())
	}
	e.observer.ObservePurge(e.dialect.Name, "by_name", removed)
	e.logger.Debug("identities purged by name", "name", name, "count", removed)

	return removed, nil
}

// LookupMostRecentByName implements altdetect.Store.
func (e *Engine) LookupMostRecentByName(ctx context.Context, name string) (identity *altdetect.Identity, err error) {
	defer e.observe("lookup_by_name", time.Now(), &err)

	db, err := e.conn()
	if err != nil {
		return nil, err
	}

	var found altdetect.Identity
	err = e.queryRow(ctx, db, e.stmts.SelectMostRecent, name).Scan(&found.StableID, &found.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, altdetect.ErrNotFound
	}
	if err != nil {
		return nil, e.fail("lookup_by_name", err)
	}
	return &found, nil
}

// ListKnownNames implements altdetect.Store.
func (e *Engine) ListKnownNames() []string {
	return e.names.Sorted()
}

// CompleteNames implements altdetect.Store.
func (e *Engine) CompleteNames(prefix string) []string {
	return e.names.WithPrefix(prefix)
}

// RebuildNameCache implements altdetect.Store.
func (e *Engine) RebuildNameCache(ctx context.Context) (err error) {
	defer e.observe("rebuild_name_cache", time.Now(), &err)

	db, err := e.conn()
	if err != nil {
		return err
	}

	rows, err := e.query(ctx, db, e.stmts.SelectAllNames)
	if err != nil {
		return e.fail("rebuild_name_cache", err)
	}
	defer rows.Close()

	names, err := scanStrings(rows)
	if err != nil {
		return e.fail("rebuild_name_cache", err)
	}

	e.names.Replace(names)
	e.observer.SetKnownNames(e.dialect.Name, e.names.Len())
	return nil
}

// ExportIdentities implements altdetect.Store.
func (e *Engine) ExportIdentities(ctx context.Context) (out []altdetect.IdentityRow, err error) {
	defer e.observe("export_identities", time.Now(), &err)

	db, err := e.conn()
	if err != nil {
		return nil, err
	}

	rows, err := e.query(ctx, db, e.stmts.SelectIdentities)
	if err != nil {
		return nil, e.fail("export_identities", err)
	}
	defer rows.Close()

	out = []altdetect.IdentityRow{}
	for rows.Next() {
		var row altdetect.IdentityRow
		if err := rows.Scan(&row.StableID, &row.DisplayName); err != nil {
			return nil, e.fail("export_identities", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, e.fail("export_identities", err)
	}
	return out, nil
}

// ExportSightings implements altdetect.Store.
func (e *Engine) ExportSightings(ctx context.Context) (out []altdetect.SightingRow, err error) {
	defer e.observe("export_sightings", time.Now(), &err)

	db, err := e.conn()
	if err != nil {
		return nil, err
	}

	rows, err := e.query(ctx, db, e.stmts.SelectSightings)
	if err != nil {
		return nil, e.fail("export_sightings", err)
	}
	defer rows.Close()

	out = []altdetect.SightingRow{}
	for rows.Next() {
		var row altdetect.SightingRow
		if err := rows.Scan(&row.IPAddress, &row.StableID, &row.SeenAt); err != nil {
			return nil, e.fail("export_sightings", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, e.fail("export_sightings", err)
	}
	return out, nil
}

// Diagnostics implements altdetect.Store.
func (e *Engine) Diagnostics(ctx context.Context) (diag altdetect.Diagnostics, err error) {
	defer e.observe("diagnostics", time.Now(), &err)

	diag = altdetect.Diagnostics{
		Backend:       e.dialect.Name,
		DriverVersion: e.provider.DriverVersion(),
	}

	db, err := e.conn()
	if err != nil {
		return diag, err
	}

	if err := db.QueryRowContext(ctx, e.stmts.Version).Scan(&diag.Version); err != nil {
		return diag, e.fail("diagnostics", err)
	}
	return diag, nil
}

// Ping implements altdetect.Store.
func (e *Engine) Ping(ctx context.Context) error {
	db, err := e.conn()
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return altdetect.NewStorageError(e.dialect.Name, "ping", err)
	}
	return nil
}

// Close implements altdetect.Store.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return nil
	}

	e.stmtMu.Lock()
	for query, stmt := range e.preparedStmts {
		stmt.Close()
		delete(e.preparedStmts, query)
	}
	e.stmtMu.Unlock()

	err := e.db.Close()
	e.db = nil
	if err != nil {
		return e.fail("close", err)
	}
	e.logger.Info("storage closed")
	return nil
}

// conn returns the open pool, or ErrNotInitialized.
func (e *Engine) conn() (*sql.DB, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.db == nil {
		return nil, e.fail("connect", altdetect.ErrNotInitialized)
	}
	return e.db, nil
}

// fail wraps err as a StorageError and logs it.
func (e *Engine) fail(op string, err error) error {
	e.logger.Warn("database error", "operation", op, "error", err)
	return altdetect.NewStorageError(e.dialect.Name, op, err)
}

func (e *Engine) observe(op string, start time.Time, err *error) {
	e.observer.ObserveOperation(e.dialect.Name, op, time.Since(start), *err)
}

func (e *Engine) addName(name string) {
	e.names.Add(name)
	e.observer.SetKnownNames(e.dialect.Name, e.names.Len())
}

func (e *Engine) logStatement(query string) {
	if e.debug.Load() {
		e.logger.Info("executing statement", "statement", query)
	}
}

// prepared returns the statement prepared for query during Initialize, or
// nil when the provider does not cache statements.
func (e *Engine) prepared(query string) *sql.Stmt {
	e.stmtMu.Lock()
	defer e.stmtMu.Unlock()
	return e.preparedStmts[query]
}

func (e *Engine) exec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	e.logStatement(query)
	if stmt := e.prepared(query); stmt != nil {
		return stmt.ExecContext(ctx, args...)
	}
	return db.ExecContext(ctx, query, args...)
}

func (e *Engine) query(ctx context.Context, db *sql.DB, query string, args ...any) (*sql.Rows, error) {
	e.logStatement(query)
	if stmt := e.prepared(query); stmt != nil {
		return stmt.QueryContext(ctx, args...)
	}
	return db.QueryContext(ctx, query, args...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (e *Engine) queryRow(ctx context.Context, db *sql.DB, query string, args ...any) rowScanner {
	e.logStatement(query)
	if stmt := e.prepared(query); stmt != nil {
		return stmt.QueryRowContext(ctx, args...)
	}
	return db.QueryRowContext(ctx, query, args...)
}

// txExec and txQueryRow bind cached statements to the transaction's own
// connection.
func (e *Engine) txExec(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	e.logStatement(query)
	if stmt := e.prepared(query); stmt != nil {
		return tx.StmtContext(ctx, stmt).ExecContext(ctx, args...)
	}
	return tx.ExecContext(ctx, query, args...)
}

func (e *Engine) txQueryRow(ctx context.Context, tx *sql.Tx, query string, args ...any) rowScanner {
	e.logStatement(query)
	if stmt := e.prepared(query); stmt != nil {
		return tx.StmtContext(ctx, stmt).QueryRowContext(ctx, args...)
	}
	return tx.QueryRowContext(ctx, query, args...)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
