package dialect

import (
	"fmt"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
)

// SQLite is the dialect for the embedded file-backed engine. Timestamps are
// stored as UTC "YYYY-MM-DD HH:MM:SS" text, which orders lexically.
var SQLite = Dialect{
	Name: altdetect.BackendNameSQLite,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS {prefix}schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS {prefix}identities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    stable_id TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS {prefix}sightings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ip_addr TEXT NOT NULL,
    identity_id INTEGER NOT NULL REFERENCES {prefix}identities(id) ON DELETE CASCADE,
    seen_at TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS {prefix}idx_sightings_ip_addr ON {prefix}sightings(ip_addr)`,
		`CREATE INDEX IF NOT EXISTS {prefix}idx_sightings_identity_id ON {prefix}sightings(identity_id)`,
	},
	InsertSchemaVersion: `INSERT INTO {prefix}schema_version (version, applied_at) VALUES (?, datetime('now')) ON CONFLICT(version) DO NOTHING`,
	VersionQuery:        `SELECT sqlite_version()`,
	Now:                 `datetime('now')`,
	Cutoff:              `datetime('now', ?)`,
	CutoffArg: func(seconds int64) any {
		return fmt.Sprintf("-%d seconds", seconds)
	},
	FromUnix:       `datetime(?, 'unixepoch')`,
	ToUnix:         `CAST(strftime('%s', {col}) AS INTEGER)`,
	SightingExists: `SELECT 1 FROM {prefix}sightings WHERE ip_addr = ? AND identity_id = ? LIMIT 1`,
}
