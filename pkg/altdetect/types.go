package altdetect

import (
	"context"
	"time"
)

// Display names reported by Store.Backend and used as metric labels. The
// configuration selects backends with the lowercase keys in package storage.
const (
	BackendNameSQLite = "SQLite"
	BackendNameMySQL  = "MySQL"
)

// Identity is a persisted player.
type Identity struct {
	StableID    string `json:"stable_id"`
	DisplayName string `json:"display_name"`
}

// IdentityRow is an exported identity, used when copying between stores.
type IdentityRow struct {
	StableID    string
	DisplayName string
}

// SightingRow is an exported sighting with its timestamp in unix seconds.
type SightingRow struct {
	IPAddress string
	StableID  string
	SeenAt    int64
}

// Time returns the sighting timestamp as a UTC time.
func (r SightingRow) Time() time.Time {
	return time.Unix(r.SeenAt, 0).UTC()
}

// Diagnostics is read-only backend metadata, logged at startup.
type Diagnostics struct {
	Backend       string `json:"backend"`
	Version       string `json:"version"`
	DriverVersion string `json:"driver_version"`
}

// Templates render an alt summary. {0} in Player is replaced by the player's
// name and {0} in PlayerList by each alt name; alts are joined by Separator.
type Templates struct {
	Player     string `yaml:"player"`
	PlayerList string `yaml:"list"`
	Separator  string `yaml:"separator"`
}

// JoinMessages format the notice emitted when a player with alts joins.
type JoinMessages struct {
	Prefix    string `yaml:"prefix"`
	Templates `yaml:",inline"`
}

// CommandMessages format the replies of the lookup and delete commands.
// {0} is the player name, or the record count for the Removed messages.
type CommandMessages struct {
	Templates       `yaml:",inline"`
	NoAlts          string `yaml:"no_alts"`
	PlayerNoAlts    string `yaml:"player_no_alts"`
	PlayerNotFound  string `yaml:"player_not_found"`
	RemovedSingular string `yaml:"removed_singular"`
	RemovedPlural   string `yaml:"removed_plural"`
}

// Store is the persistence contract for identities and sightings.
// Implementations must be safe for concurrent use by background workers.
type Store interface {
	// Initialize opens the connection provider and creates the schema if it
	// is absent. No other operation may be used when it fails.
	Initialize(ctx context.Context) error

	// UpsertIdentity creates the identity for stableID, or renames it when
	// the display name changed. An unchanged identity is a successful no-op.
	UpsertIdentity(ctx context.Context, name, stableID string) error

	// RecordSighting marks stableID as seen at ip now. The identity must
	// already exist.
	RecordSighting(ctx context.Context, ip, stableID string) error

	// RecordSightingAt is RecordSighting with an explicit historical
	// timestamp, truncated to seconds. Used by migration.
	RecordSightingAt(ctx context.Context, ip, stableID string, at time.Time) error

	// FindCorrelatedNames returns the distinct display names of identities
	// other than excludeID that share an address with stableID within window,
	// ordered case-insensitively.
	FindCorrelatedNames(ctx context.Context, stableID, excludeID string, window time.Duration) ([]string, error)

	// PurgeExpired deletes sightings at or before now - window, then every
	// identity left without sightings. Returns the number of sightings removed.
	PurgeExpired(ctx context.Context, window time.Duration) (int64, error)

	// PurgeByName deletes every identity whose display name matches name
	// case-insensitively, with its sightings. Returns the identities removed.
	PurgeByName(ctx context.Context, name string) (int64, error)

	// LookupMostRecentByName resolves a display name to the matching identity
	// with the latest sighting. Returns ErrNotFound when nothing matches.
	LookupMostRecentByName(ctx context.Context, name string) (*Identity, error)

	// ListKnownNames returns a sorted snapshot of the name cache.
	ListKnownNames() []string

	// CompleteNames returns cached names starting with prefix, ignoring case.
	CompleteNames(prefix string) []string

	// RebuildNameCache reloads the name cache from the identities table.
	RebuildNameCache(ctx context.Context) error

	// ExportIdentities returns every identity.
	ExportIdentities(ctx context.Context) ([]IdentityRow, error)

	// ExportSightings returns every sighting joined with its identity's stable ID.
	ExportSightings(ctx context.Context) ([]SightingRow, error)

	// Diagnostics returns the server and driver versions.
	Diagnostics(ctx context.Context) (Diagnostics, error)

	// Backend returns the backend name (BackendNameSQLite or BackendNameMySQL).
	Backend() string

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection provider. It is idempotent and safe to
	// call after a failed Initialize.
	Close() error
}
