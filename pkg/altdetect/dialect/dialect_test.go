package dialect

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allStatements(s Statements) []string {
	out := append([]string{}, s.Schema...)
	return append(out,
		s.InsertSchemaVersion, s.GetSchemaVersion, s.Version,
		s.SelectAllNames, s.SelectIdentity, s.SelectIdentityID, s.InsertIdentity, s.UpdateIdentity,
		s.SightingExists, s.InsertSighting, s.UpdateSighting, s.InsertSightingAt, s.UpdateSightingAt,
		s.SelectCorrelated, s.SelectMostRecent,
		s.PurgeSightings, s.PurgeOrphans, s.PurgeByName,
		s.SelectIdentities, s.SelectSightings,
	)
}

func TestRender_SubstitutesAllPlaceholders(t *testing.T) {
	for _, d := range []Dialect{SQLite, MySQL} {
		t.Run(d.Name, func(t *testing.T) {
			s := d.Render("alt_")
			for _, stmt := range allStatements(s) {
				require.NotEmpty(t, stmt)
				for _, ph := range []string{"{prefix}", "{now}", "{cutoff}", "{from_unix}", "{to_unix}", "{col}"} {
					assert.NotContains(t, stmt, ph)
				}
			}
			assert.Contains(t, s.InsertIdentity, "alt_identities")
			assert.Contains(t, s.PurgeOrphans, "alt_sightings")
			assert.Contains(t, s.SelectCorrelated, d.Cutoff)
		})
	}
}

func TestRender_EmptyPrefix(t *testing.T) {
	s := SQLite.Render("")
	assert.Equal(t, "INSERT INTO identities (stable_id, display_name) VALUES (?, ?)", s.InsertIdentity)
	assert.Equal(t, "DELETE FROM sightings WHERE seen_at <= datetime('now', ?)", s.PurgeSightings)
}

func TestRender_DialectFragments(t *testing.T) {
	sqlite := SQLite.Render("")
	assert.Contains(t, sqlite.InsertSighting, "datetime('now')")
	assert.Contains(t, sqlite.InsertSightingAt, "datetime(?, 'unixepoch')")
	assert.Contains(t, sqlite.SelectSightings, "CAST(strftime('%s', s.seen_at) AS INTEGER)")
	assert.NotContains(t, sqlite.SightingExists, "FOR UPDATE")

	mysql := MySQL.Render("")
	assert.Contains(t, mysql.InsertSighting, "NOW()")
	assert.Contains(t, mysql.InsertSightingAt, "FROM_UNIXTIME(?)")
	assert.Contains(t, mysql.SelectSightings, "UNIX_TIMESTAMP(s.seen_at)")
	assert.Contains(t, mysql.SelectCorrelated, "s.seen_at >= NOW() - INTERVAL ? SECOND")
	assert.True(t, strings.HasSuffix(mysql.SightingExists, "FOR UPDATE"))
}

func TestRender_CorrelationShape(t *testing.T) {
	s := SQLite.Render("p_")
	// One parameter each for the identity, the exclusion and the cutoff.
	assert.Equal(t, 3, strings.Count(s.SelectCorrelated, "?"))
	assert.Contains(t, s.SelectCorrelated, "SELECT DISTINCT i.display_name")
	assert.True(t, strings.HasSuffix(s.SelectCorrelated, "ORDER BY lower(i.display_name)"))
}

func TestCutoffArg(t *testing.T) {
	assert.Equal(t, "-86400 seconds", SQLite.CutoffArg(86400))
	assert.Equal(t, "-0 seconds", SQLite.CutoffArg(0))
	assert.Equal(t, int64(86400), MySQL.CutoffArg(86400))
}

func TestWindowSeconds(t *testing.T) {
	tests := []struct {
		name   string
		window time.Duration
		want   int64
	}{
		{"zero", 0, 0},
		{"negative", -time.Hour, 0},
		{"sub-second truncates", 1500 * time.Millisecond, 1},
		{"sixty days", 60 * 24 * time.Hour, 5184000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WindowSeconds(tt.window))
		})
	}
}
