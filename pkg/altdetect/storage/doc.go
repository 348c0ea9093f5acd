// Package storage implements altdetect.Store on database/sql.
//
// A single Engine runs every operation; backend differences live in a
// Provider, which opens the pool and supplies the SQL dialect:
//
//	SQLiteProvider  one connection, foreign keys on in the DSN
//	MySQLProvider   bounded pool, cached prepared statements
//
// # Basic Usage
//
//	engine, err := storage.New(&storage.Config{
//	    Backend: storage.BackendSQLite,
//	    SQLite:  &storage.SQLiteConfig{Path: "data/altdetector.db"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := engine.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	engine.UpsertIdentity(ctx, "Alice", "U1")
//	engine.RecordSighting(ctx, "1.2.3.4", "U1")
//	alts, _ := engine.FindCorrelatedNames(ctx, "U1", "U1", 60*24*time.Hour)
//
// Every failed operation is logged once at warn level and returned as an
// *altdetect.StorageError.
package storage
