// Package testsupport holds shared fixtures for package tests.
package testsupport

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"comichub/internal/library"
	"comichub/pkg/database"
	"comichub/pkg/models"
)

// OpenDB opens a migrated sqlite database in the test's temp dir and closes
// it on cleanup.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := database.Config{Path: filepath.Join(t.TempDir(), "library.db")}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// InsertSeries adds a series row.
func InsertSeries(t *testing.T, db *sql.DB, s models.Series) {
	t.Helper()
	if err := library.NewSeriesRepo(db).Create(context.Background(), s); err != nil {
		t.Fatalf("insert series %s: %v", s.ID, err)
	}
}

// InsertFile adds a file row.
func InsertFile(t *testing.T, db *sql.DB, f models.File) {
	t.Helper()
	if f.Path == "" {
		f.Path = filepath.Join(t.TempDir(), f.ID+".cbz")
	}
	if err := library.NewFileRepo(db).Insert(context.Background(), f); err != nil {
		t.Fatalf("insert file %s: %v", f.ID, err)
	}
}
