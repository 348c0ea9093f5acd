package config

import (
	"testing"
	"time"
)

func TestConfig_StorageConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Backend = BackendMySQL
	cfg.Store.SQLDebug = true
	cfg.Store.MySQL.Database = "minecraft"
	cfg.Store.MySQL.Properties = map[string]string{"tls": "true"}

	sc := cfg.StorageConfig()
	if sc.Backend != BackendMySQL || !sc.SQLDebug {
		t.Errorf("StorageConfig() = %+v", sc)
	}
	if sc.MySQL.Database != "minecraft" || sc.MySQL.Prefix != DefaultMySQLPrefix {
		t.Errorf("StorageConfig().MySQL = %+v", sc.MySQL)
	}
	if sc.SQLite.Path != DefaultSQLitePath {
		t.Errorf("StorageConfig().SQLite.Path = %q", sc.SQLite.Path)
	}

	sc.MySQL.Properties["tls"] = "false"
	if cfg.Store.MySQL.Properties["tls"] != "true" {
		t.Error("StorageConfig() shares the properties map")
	}

	src := cfg.SourceStorageConfig(BackendSQLite)
	if src.Backend != BackendSQLite {
		t.Errorf("SourceStorageConfig().Backend = %q", src.Backend)
	}
}

func TestConfig_DetectorConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExpirationDays = 2
	cfg.Messages.Join.Prefix = "> "

	dc := cfg.DetectorConfig()
	if dc.Window != 48*time.Hour {
		t.Errorf("Window = %v, want 48h", dc.Window)
	}
	if dc.Join.Prefix != "> " || dc.Command.NoAlts != DefaultNoAltsMessage {
		t.Errorf("DetectorConfig() = %+v", dc)
	}
}

func TestConfig_RetentionAndPool(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExpirationDays = 0
	cfg.Workers.Size = 8
	cfg.Workers.Queue = 16

	rc := cfg.RetentionConfig()
	if rc.RetentionDays != 0 || rc.PruneSchedule != DefaultPruneSchedule {
		t.Errorf("RetentionConfig() = %+v", rc)
	}

	pc := cfg.PoolConfig()
	if pc.Workers != 8 || pc.QueueSize != 16 {
		t.Errorf("PoolConfig() = %+v", pc)
	}
}
