package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{
			name:   "defaults",
			modify: func(*Config) {},
		},
		{
			name:   "zero retention",
			modify: func(c *Config) { c.ExpirationDays = 0 },
		},
		{
			name:      "negative retention",
			modify:    func(c *Config) { c.ExpirationDays = -5 },
			wantField: "expiration_days",
		},
		{
			name:   "century retention",
			modify: func(c *Config) { c.ExpirationDays = 36500 },
		},
		{
			name:      "retention beyond a century",
			modify:    func(c *Config) { c.ExpirationDays = 200000 },
			wantField: "expiration_days",
		},
		{
			name:      "unknown backend",
			modify:    func(c *Config) { c.Store.Backend = "postgres" },
			wantField: "store.backend",
		},
		{
			name:      "unknown driver",
			modify:    func(c *Config) { c.Store.SQLite.Driver = "cgo" },
			wantField: "store.sqlite.driver",
		},
		{
			name:      "empty sqlite path",
			modify:    func(c *Config) { c.Store.SQLite.Path = "" },
			wantField: "store.sqlite.path",
		},
		{
			name: "valid mysql",
			modify: func(c *Config) {
				c.Store.Backend = BackendMySQL
				c.Store.MySQL.Database = "minecraft"
			},
		},
		{
			name: "mysql port out of range",
			modify: func(c *Config) {
				c.Store.Backend = BackendMySQL
				c.Store.MySQL.Database = "minecraft"
				c.Store.MySQL.Port = 70000
			},
			wantField: "store.mysql.port",
		},
		{
			name: "mysql missing database",
			modify: func(c *Config) {
				c.Store.Backend = BackendMySQL
			},
			wantField: "store.mysql.database",
		},
		{
			name: "mysql single connection",
			modify: func(c *Config) {
				c.Store.Backend = BackendMySQL
				c.Store.MySQL.Database = "minecraft"
				c.Store.MySQL.MaxOpenConns = 1
			},
			wantField: "store.mysql.max_open_conns",
		},
		{
			name:   "mysql settings ignored for sqlite",
			modify: func(c *Config) { c.Store.MySQL.Port = -1 },
		},
		{
			name:   "convert from yml",
			modify: func(c *Config) { c.ConvertFrom = ConvertYAML },
		},
		{
			name:   "convert from mysql into sqlite",
			modify: func(c *Config) { c.ConvertFrom = ConvertMySQL },
		},
		{
			name:      "convert from own backend",
			modify:    func(c *Config) { c.ConvertFrom = ConvertSQLite },
			wantField: "convert_from",
		},
		{
			name:      "unknown conversion",
			modify:    func(c *Config) { c.ConvertFrom = "json" },
			wantField: "convert_from",
		},
		{
			name:   "pruning disabled",
			modify: func(c *Config) { c.Retention.PruneSchedule = "" },
		},
		{
			name:      "bad cron",
			modify:    func(c *Config) { c.Retention.PruneSchedule = "* * *" },
			wantField: "retention.prune_schedule",
		},
		{
			name:      "no workers",
			modify:    func(c *Config) { c.Workers.Size = 0 },
			wantField: "workers.size",
		},
		{
			name: "admin bad address",
			modify: func(c *Config) {
				c.Admin.Enabled = true
				c.Admin.ListenAddress = "localhost"
			},
			wantField: "admin.listen_address",
		},
		{
			name:   "admin address unchecked when disabled",
			modify: func(c *Config) { c.Admin.ListenAddress = "localhost" },
		},
		{
			name:      "bad log level",
			modify:    func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "bad log format",
			modify:    func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantField: "telemetry.logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors %v do not include field %q", verr.Errors, tt.wantField)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("Error() = %q", got)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}}
	got := multi.Error()
	if !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - b: worse") {
		t.Errorf("Error() = %q", got)
	}
}
