// Package migration applies versioned schema changes to the SQLite store.
//
// Migration files are named {version}_{description}.sql and compiled into the
// binary from the sql directory. Each file runs in its own transaction
// together with its schema_migrations row, so a failed file leaves no trace.
// Applied files are fingerprinted; editing one after it ran is reported as
// ErrChecksumMismatch instead of being silently ignored.
//
// Example usage:
//
//	db, err := migration.OpenDB(migration.DefaultSQLiteConfig("statusboard.db"))
//	if err != nil {
//		return err
//	}
//	manager := migration.NewMigrationManager(migration.Embedded(), migration.NewSQLiteExecutor(db), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
