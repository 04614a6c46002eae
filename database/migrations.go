// Package database provides schema migrations for the Argus database.
package database

import (
	"log"
)

// migrate runs all database migrations to create the schema.
// Creates the table for daemon probe logs.
//
// Returns an error if any migration fails.
func migrate() error {
	migrations := []struct {
		name string
		sql  string
	}{
		{
			name: "create_probe_logs_table",
			sql: `
CREATE TABLE IF NOT EXISTS probe_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    reachable BOOLEAN NOT NULL DEFAULT 0,
    error_message TEXT,
    checked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_probe_logs_checked_at ON probe_logs(checked_at);
CREATE INDEX IF NOT EXISTS idx_probe_logs_reachable ON probe_logs(reachable);
			`,
		},
	}

	for _, migration := range migrations {
		log.Printf("Running migration: %s", migration.name)
		if _, err := db.Exec(migration.sql); err != nil {
			log.Printf("Migration failed for %s: %v", migration.name, err)
			return err
		}
		log.Printf("Migration completed: %s", migration.name)
	}

	return nil
}
