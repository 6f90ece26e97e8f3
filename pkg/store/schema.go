package store

import "database/sql"

// schema defines the result tables. Matches are unique per
// (source, pattern, offset, length) so re-running a scan is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS sources (
	name TEXT PRIMARY KEY,
	size INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	pattern_id TEXT NOT NULL,
	offset_start INTEGER NOT NULL,
	length INTEGER NOT NULL,
	UNIQUE(source, pattern_id, offset_start, length)
);

CREATE INDEX IF NOT EXISTS idx_matches_source ON matches(source);
`

// CreateSchema initializes the result tables.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
