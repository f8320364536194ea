package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Term kinds tracked by the autocomplete index.
const (
	KindGenre     = "genre"
	KindCreator   = "creator"
	KindCharacter = "character"
)

// Index maintains the autocomplete term tables fed from cached file
// metadata. Terms are only ever added; stale terms age out when the index is
// rebuilt, which keeps refreshes cheap during invalidation cascades.
type Index struct {
	DB *sql.DB
}

func NewIndex(db *sql.DB) *Index {
	return &Index{DB: db}
}

// RefreshFromFile upserts the file's genres, creators and characters into
// the term index.
func (i *Index) RefreshFromFile(ctx context.Context, fileID string) error {
	var metaJSON sql.NullString
	err := i.DB.QueryRowContext(ctx, `
		SELECT metadata FROM files WHERE id = ?
	`, fileID).Scan(&metaJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("file %s not found", fileID)
		}
		return fmt.Errorf("load metadata for %s: %w", fileID, err)
	}
	if !metaJSON.Valid || metaJSON.String == "" {
		return nil
	}

	for kind, path := range map[string]string{
		KindGenre:     "$.genres",
		KindCreator:   "$.creators",
		KindCharacter: "$.characters",
	} {
		if err := i.upsertTerms(ctx, fileID, kind, path); err != nil {
			return err
		}
	}
	return nil
}

func (i *Index) upsertTerms(ctx context.Context, fileID, kind, jsonPath string) error {
	_, err := i.DB.ExecContext(ctx, `
		INSERT OR IGNORE INTO search_terms (kind, term)
		SELECT ?, value
		FROM files, json_each(json_extract(files.metadata, ?))
		WHERE files.id = ? AND TRIM(value) != ''
	`, kind, jsonPath, fileID)
	if err != nil {
		return fmt.Errorf("index %s terms for %s: %w", kind, fileID, err)
	}
	return nil
}

// Autocomplete returns up to limit terms of the given kind matching prefix.
func (i *Index) Autocomplete(ctx context.Context, kind, prefix string, limit int) ([]string, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	rows, err := i.DB.QueryContext(ctx, `
		SELECT term FROM search_terms
		WHERE kind = ? AND LOWER(term) LIKE ?
		ORDER BY term ASC
		LIMIT ?
	`, kind, strings.ToLower(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("autocomplete query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		out = append(out, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Rebuild drops and refills the whole index from every file's metadata.
func (i *Index) Rebuild(ctx context.Context) error {
	if _, err := i.DB.ExecContext(ctx, `DELETE FROM search_terms`); err != nil {
		return fmt.Errorf("clear terms: %w", err)
	}
	rows, err := i.DB.QueryContext(ctx, `
		SELECT id FROM files WHERE metadata IS NOT NULL AND metadata != ''
	`)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan file id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows err: %w", err)
	}

	for _, id := range ids {
		if err := i.RefreshFromFile(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
