package dialect

import (
	"strings"
	"time"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Dialect is the set of backend-specific SQL fragments.
type Dialect struct {
	// Name is the backend name reported by the store.
	Name string

	// Schema holds the DDL statements, executed in order. Every statement
	// must be idempotent.
	Schema []string

	// InsertSchemaVersion records SchemaVersion, ignoring duplicates.
	InsertSchemaVersion string

	// VersionQuery returns the server version string.
	VersionQuery string

	// Now is the current-timestamp expression.
	Now string

	// Cutoff is "now minus N seconds" with one bound parameter, produced by
	// CutoffArg.
	Cutoff string

	// CutoffArg converts a retention window in seconds to the Cutoff parameter.
	CutoffArg func(seconds int64) any

	// FromUnix converts one bound unix-seconds parameter to a timestamp.
	FromUnix string

	// ToUnix converts the column named {col} to unix seconds.
	ToUnix string

	// SightingExists selects a row when a sighting exists for
	// (ip_addr, identity_id). It runs inside the RecordSighting transaction.
	SightingExists string
}

// Statements is a fully rendered statement set.
type Statements struct {
	Schema              []string
	InsertSchemaVersion string
	GetSchemaVersion    string
	Version             string

	SelectAllNames   string
	SelectIdentity   string
	SelectIdentityID string
	InsertIdentity   string
	UpdateIdentity   string

	SightingExists   string
	InsertSighting   string
	UpdateSighting   string
	InsertSightingAt string
	UpdateSightingAt string

	SelectCorrelated string
	SelectMostRecent string

	PurgeSightings   string
	PurgeOrphans     string
	PurgeByName      string
	SelectIdentities string
	SelectSightings  string
}

const (
	getSchemaVersion = `SELECT version FROM {prefix}schema_version ORDER BY version DESC LIMIT 1`

	selectAllNames   = `SELECT DISTINCT display_name FROM {prefix}identities`
	selectIdentity   = `SELECT id, display_name FROM {prefix}identities WHERE stable_id = ?`
	selectIdentityID = `SELECT id FROM {prefix}identities WHERE stable_id = ?`
	insertIdentity   = `INSERT INTO {prefix}identities (stable_id, display_name) VALUES (?, ?)`
	updateIdentity   = `UPDATE {prefix}identities SET display_name = ? WHERE id = ?`

	insertSighting   = `INSERT INTO {prefix}sightings (ip_addr, identity_id, seen_at) VALUES (?, ?, {now})`
	updateSighting   = `UPDATE {prefix}sightings SET seen_at = {now} WHERE ip_addr = ? AND identity_id = ?`
	insertSightingAt = `INSERT INTO {prefix}sightings (ip_addr, identity_id, seen_at) VALUES (?, ?, {from_unix})`

	// Only moves a sighting forward in time, so replaying old data never
	// overwrites a newer sighting.
	updateSightingAt = `UPDATE {prefix}sightings SET seen_at = {from_unix} WHERE ip_addr = ? AND identity_id = ? AND seen_at < {from_unix}`

	selectCorrelated = `SELECT DISTINCT i.display_name FROM {prefix}sightings s ` +
		`INNER JOIN {prefix}identities i ON s.identity_id = i.id ` +
		`WHERE s.ip_addr IN (` +
		`SELECT s2.ip_addr FROM {prefix}sightings s2 ` +
		`INNER JOIN {prefix}identities i2 ON s2.identity_id = i2.id ` +
		`WHERE i2.stable_id = ?) ` +
		`AND i.stable_id <> ? ` +
		`AND s.seen_at >= {cutoff} ` +
		`ORDER BY lower(i.display_name)`

	selectMostRecent = `SELECT i.stable_id, i.display_name FROM {prefix}sightings s ` +
		`INNER JOIN {prefix}identities i ON s.identity_id = i.id ` +
		`WHERE lower(i.display_name) = lower(?) ` +
		`ORDER BY s.seen_at DESC, s.id DESC LIMIT 1`

	purgeSightings = `DELETE FROM {prefix}sightings WHERE seen_at <= {cutoff}`
	purgeOrphans   = `DELETE FROM {prefix}identities WHERE id NOT IN (SELECT identity_id FROM {prefix}sightings)`
	purgeByName    = `DELETE FROM {prefix}identities WHERE lower(display_name) = lower(?)`

	selectIdentities = `SELECT stable_id, display_name FROM {prefix}identities ORDER BY id`
	selectSightings  = `SELECT s.ip_addr, i.stable_id, {to_unix} FROM {prefix}sightings s ` +
		`INNER JOIN {prefix}identities i ON s.identity_id = i.id ORDER BY s.id`
)

// Render substitutes the prefix and the dialect fragments into every
// statement template.
func (d Dialect) Render(prefix string) Statements {
	r := strings.NewReplacer(
		"{prefix}", prefix,
		"{now}", d.Now,
		"{cutoff}", d.Cutoff,
		"{from_unix}", d.FromUnix,
		"{to_unix}", strings.ReplaceAll(d.ToUnix, "{col}", "s.seen_at"),
	)

	schema := make([]string, len(d.Schema))
	for i, ddl := range d.Schema {
		schema[i] = r.Replace(ddl)
	}

	return Statements{
		Schema:              schema,
		InsertSchemaVersion: r.Replace(d.InsertSchemaVersion),
		GetSchemaVersion:    r.Replace(getSchemaVersion),
		Version:             d.VersionQuery,

		SelectAllNames:   r.Replace(selectAllNames),
		SelectIdentity:   r.Replace(selectIdentity),
		SelectIdentityID: r.Replace(selectIdentityID),
		InsertIdentity:   r.Replace(insertIdentity),
		UpdateIdentity:   r.Replace(updateIdentity),

		SightingExists:   r.Replace(d.SightingExists),
		InsertSighting:   r.Replace(insertSighting),
		UpdateSighting:   r.Replace(updateSighting),
		InsertSightingAt: r.Replace(insertSightingAt),
		UpdateSightingAt: r.Replace(updateSightingAt),

		SelectCorrelated: r.Replace(selectCorrelated),
		SelectMostRecent: r.Replace(selectMostRecent),

		PurgeSightings:   r.Replace(purgeSightings),
		PurgeOrphans:     r.Replace(purgeOrphans),
		PurgeByName:      r.Replace(purgeByName),
		SelectIdentities: r.Replace(selectIdentities),
		SelectSightings:  r.Replace(selectSightings),
	}
}

// Runtime lists the statements executed after initialization, the set a
// statement cache prepares up front.
func (s Statements) Runtime() []string {
	return []string{
		s.SelectAllNames,
		s.SelectIdentity,
		s.SelectIdentityID,
		s.InsertIdentity,
		s.UpdateIdentity,
		s.SightingExists,
		s.InsertSighting,
		s.UpdateSighting,
		s.InsertSightingAt,
		s.UpdateSightingAt,
		s.SelectCorrelated,
		s.SelectMostRecent,
		s.PurgeSightings,
		s.PurgeOrphans,
		s.PurgeByName,
		s.SelectIdentities,
		s.SelectSightings,
	}
}

// WindowSeconds converts a retention window to whole seconds. Negative
// windows are treated as zero.
func WindowSeconds(window time.Duration) int64 {
	if window < 0 {
		return 0
	}
	return int64(window / time.Second)
}
