package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"comichub/pkg/models"
)

// FileRepo persists library files and their cached metadata. Linkage writes
// go through a version check so two concurrent invalidations of the same
// file cannot clobber each other's rollback.
type FileRepo struct {
	DB *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{DB: db}
}

const fileColumns = `id, path, series_id, metadata, inherited, version, updated_at`

func (r *FileRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+fileColumns+`
		FROM files
		WHERE id = ?
	`, id)

	f, err := scanFile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return f, nil
}

func (r *FileRepo) ListByIDs(ctx context.Context, ids []string) ([]models.File, error) {
	out := make([]models.File, 0, len(ids))
	for _, id := range ids {
		f, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if f != nil {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *FileRepo) ListBySeries(ctx context.Context, seriesID string) ([]models.File, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+fileColumns+`
		FROM files
		WHERE series_id = ?
		ORDER BY path ASC
	`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list files by series: %w", err)
	}
	defer rows.Close()
	return collectFiles(rows)
}

// ListWithMetadata returns every file that has cached metadata, the scan set
// for linkage repair.
func (r *FileRepo) ListWithMetadata(ctx context.Context) ([]models.File, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+fileColumns+`
		FROM files
		WHERE metadata IS NOT NULL AND metadata != ''
		ORDER BY path ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list files with metadata: %w", err)
	}
	defer rows.Close()
	return collectFiles(rows)
}

func (r *FileRepo) Insert(ctx context.Context, f models.File) error {
	metaJSON, err := marshalMetadata(f.Metadata)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO files (id, path, series_id, metadata, inherited, version, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, CURRENT_TIMESTAMP)
	`, f.ID, f.Path, nullableID(f.SeriesID), metaJSON, boolInt(f.Inherited))
	if err != nil {
		return fmt.Errorf("insert file %s: %w", f.ID, err)
	}
	return nil
}

// UpdateMetadata replaces the cached metadata JSON. The linkage version is
// untouched; only link writes bump it.
func (r *FileRepo) UpdateMetadata(ctx context.Context, fileID string, md *models.FileMetadata, inherited bool) error {
	metaJSON, err := marshalMetadata(md)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE files
		SET metadata = ?, inherited = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, metaJSON, boolInt(inherited), fileID)
	if err != nil {
		return fmt.Errorf("update metadata for %s: %w", fileID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("update metadata: file %s not found", fileID)
	}
	return nil
}

// UpdateLink writes a new series link if and only if the row still carries
// expectedVersion. Returns false when another writer got there first.
func (r *FileRepo) UpdateLink(ctx context.Context, fileID, seriesID string, expectedVersion int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE files
		SET series_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`, nullableID(seriesID), fileID, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("update link for %s: %w", fileID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RestoreLink writes a link unconditionally. Used only by the rollback path,
// where leaving the file unlinked would be worse than losing a version race.
func (r *FileRepo) RestoreLink(ctx context.Context, fileID, seriesID string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE files
		SET series_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, nullableID(seriesID), fileID)
	if err != nil {
		return fmt.Errorf("restore link for %s: %w", fileID, err)
	}
	return nil
}

func collectFiles(rows *sql.Rows) ([]models.File, error) {
	var out []models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*models.File, error) {
	var (
		f         models.File
		seriesID  sql.NullString
		metaJSON  sql.NullString
		inherited int
		updated   time.Time
	)
	if err := row.Scan(&f.ID, &f.Path, &seriesID, &metaJSON, &inherited, &f.Version, &updated); err != nil {
		return nil, err
	}
	f.SeriesID = seriesID.String
	f.Inherited = inherited != 0
	f.UpdatedAt = updated
	if metaJSON.Valid && metaJSON.String != "" {
		var md models.FileMetadata
		if err := json.Unmarshal([]byte(metaJSON.String), &md); err == nil {
			f.Metadata = &md
		}
	}
	return &f, nil
}

func marshalMetadata(md *models.FileMetadata) (any, error) {
	if md == nil {
		return nil, nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), nil
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SeriesRepo persists series rows.
type SeriesRepo struct {
	DB *sql.DB
}

func NewSeriesRepo(db *sql.DB) *SeriesRepo {
	return &SeriesRepo{DB: db}
}

const seriesColumns = `id, name, publisher, start_year, status, folder_path, updated_at`

func (r *SeriesRepo) GetByID(ctx context.Context, id string) (*models.Series, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+seriesColumns+`
		FROM series
		WHERE id = ?
	`, id)

	s, err := scanSeries(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan series: %w", err)
	}
	return s, nil
}

func (r *SeriesRepo) All(ctx context.Context) ([]models.Series, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+seriesColumns+`
		FROM series
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var out []models.Series
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series row: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *SeriesRepo) Create(ctx context.Context, s models.Series) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO series (id, name, publisher, start_year, status, folder_path, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, s.ID, s.Name, s.Publisher, s.StartYear, s.Status, s.FolderPath)
	if err != nil {
		return fmt.Errorf("create series %s: %w", s.ID, err)
	}
	return nil
}

func scanSeries(row rowScanner) (*models.Series, error) {
	var (
		s         models.Series
		publisher sql.NullString
		startYear sql.NullInt64
		status    sql.NullString
		folder    sql.NullString
		updated   time.Time
	)
	if err := row.Scan(&s.ID, &s.Name, &publisher, &startYear, &status, &folder, &updated); err != nil {
		return nil, err
	}
	s.Publisher = publisher.String
	s.StartYear = int(startYear.Int64)
	s.Status = status.String
	s.FolderPath = folder.String
	s.UpdatedAt = updated
	return &s, nil
}
