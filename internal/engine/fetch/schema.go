package fetch

import (
	"database/sql"
	"fmt"
)

// schemaVersion is tracked in sqlite's user_version pragma.
const schemaVersion = 2

// upgrades[i] moves the schema from version i to i+1.
var upgrades = []string{
	`CREATE TABLE IF NOT EXISTS responses (
  url TEXT PRIMARY KEY,
  status INTEGER NOT NULL,
  content_type TEXT NOT NULL DEFAULT '',
  body BLOB NOT NULL,
  fetched_at_utc TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_responses_fetched_at ON responses(fetched_at_utc)`,
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("fetch cache schema %d was written by a newer release (supported: %d)", version, schemaVersion)
	}

	for ; version < schemaVersion; version++ {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(upgrades[version]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upgrade fetch cache schema to %d: %w", version+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, version+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record fetch cache schema %d: %w", version+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
