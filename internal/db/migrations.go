package db

import (
	"database/sql"
	"fmt"
)

// Migration is a single schema upgrade step
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations lists schema upgrades in order. Version 1 is the initial
// schema applied by Initialize; later versions upgrade existing databases.
var Migrations = []Migration{
	{
		Version: 2,
		Name:    "index undo_stack liveness scan",
		SQL:     `CREATE INDEX IF NOT EXISTS idx_undo_stack_live ON undo_stack(undone_at, expiration);`,
	},
}

// GetSchemaVersion returns the current schema version from the database
func (db *DB) GetSchemaVersion() (int, error) {
	var version string
	err := db.conn.QueryRow("SELECT value FROM schema_info WHERE key = 'version'").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		// Table might not exist yet
		return 0, nil
	}
	var v int
	fmt.Sscanf(version, "%d", &v)
	return v, nil
}

// SetSchemaVersion sets the schema version in the database
func (db *DB) SetSchemaVersion(version int) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", version))
	return err
}

// RunMigrations runs any pending database migrations and returns how many ran
func (db *DB) RunMigrations() (int, error) {
	_, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_info (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	if err != nil {
		return 0, fmt.Errorf("create schema_info: %w", err)
	}

	currentVersion, err := db.GetSchemaVersion()
	if err != nil {
		return 0, fmt.Errorf("get schema version: %w", err)
	}
	if currentVersion >= SchemaVersion {
		return 0, nil
	}

	migrationsRun := 0
	for _, migration := range Migrations {
		if migration.Version <= currentVersion {
			continue
		}
		if _, err := db.conn.Exec(migration.SQL); err != nil {
			return migrationsRun, fmt.Errorf("migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		migrationsRun++
	}

	if err := db.SetSchemaVersion(SchemaVersion); err != nil {
		return migrationsRun, fmt.Errorf("set schema version: %w", err)
	}
	return migrationsRun, nil
}
