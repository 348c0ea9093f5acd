package dialect

import "github.com/Bobcat00/AltDetector/pkg/altdetect"

// MySQL is the dialect for the networked engine. Tables use InnoDB so the
// foreign key cascade and row locks are honoured.
var MySQL = Dialect{
	Name: altdetect.BackendNameMySQL,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS {prefix}schema_version (
    version INT NOT NULL PRIMARY KEY,
    applied_at DATETIME NOT NULL
) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS {prefix}identities (
    id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    stable_id VARCHAR(64) NOT NULL UNIQUE,
    display_name VARCHAR(64) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS {prefix}sightings (
    id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    ip_addr VARCHAR(45) NOT NULL,
    identity_id INT UNSIGNED NOT NULL,
    seen_at DATETIME NOT NULL,
    INDEX {prefix}idx_sightings_ip_addr (ip_addr),
    INDEX {prefix}idx_sightings_identity_id (identity_id),
    FOREIGN KEY (identity_id) REFERENCES {prefix}identities(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	InsertSchemaVersion: `INSERT IGNORE INTO {prefix}schema_version (version, applied_at) VALUES (?, NOW())`,
	VersionQuery:        `SELECT version()`,
	Now:                 `NOW()`,
	Cutoff:              `NOW() - INTERVAL ? SECOND`,
	CutoffArg: func(seconds int64) any {
		return seconds
	},
	FromUnix: `FROM_UNIXTIME(?)`,
	ToUnix:   `UNIX_TIMESTAMP({col})`,
	// The row lock keeps two concurrent joins from the same address from
	// both inserting.
	SightingExists: `SELECT 1 FROM {prefix}sightings WHERE ip_addr = ? AND identity_id = ? LIMIT 1 FOR UPDATE`,
}
