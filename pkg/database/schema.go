package database

import (
	"database/sql"
	"fmt"
)

// Schema is applied in full on startup; every statement is idempotent so
// re-running Migrate against an existing database is safe.
const Schema = `
CREATE TABLE IF NOT EXISTS series (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  publisher TEXT,
  start_year INTEGER,
  status TEXT,
  folder_path TEXT,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS files (
  id TEXT PRIMARY KEY,
  path TEXT NOT NULL UNIQUE,
  series_id TEXT REFERENCES series(id) ON DELETE SET NULL,
  metadata TEXT,            -- flattened cached metadata as JSON
  inherited INTEGER NOT NULL DEFAULT 0,
  version INTEGER NOT NULL DEFAULT 0,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_files_series ON files(series_id);

CREATE TABLE IF NOT EXISTS stats_dirty (
  file_id TEXT PRIMARY KEY REFERENCES files(id) ON DELETE CASCADE,
  marked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS series_stats (
  series_id TEXT PRIMARY KEY REFERENCES series(id) ON DELETE CASCADE,
  file_count INTEGER NOT NULL DEFAULT 0,
  first_number TEXT,
  last_number TEXT,
  computed_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS search_terms (
  kind TEXT NOT NULL,       -- genre | creator | character
  term TEXT NOT NULL,
  PRIMARY KEY (kind, term)
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
