package stats

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// Service tracks which files have stale aggregate contributions and
// recomputes per-series rollups on demand. MarkDirty is cheap and safe to
// call often; TriggerDirtyProcessing batches the actual recompute.
type Service struct {
	DB     *sql.DB
	Logger *log.Logger
}

func NewService(db *sql.DB, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{DB: db, Logger: logger}
}

func (s *Service) MarkDirty(ctx context.Context, fileID string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO stats_dirty (file_id, marked_at)
		VALUES (?, CURRENT_TIMESTAMP)
		ON CONFLICT(file_id) DO UPDATE SET marked_at = CURRENT_TIMESTAMP
	`, fileID)
	if err != nil {
		return fmt.Errorf("mark dirty %s: %w", fileID, err)
	}
	return nil
}

// TriggerDirtyProcessing recomputes stats for every series that owns a dirty
// file, then clears the processed flags.
func (s *Service) TriggerDirtyProcessing(ctx context.Context) error {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT DISTINCT f.series_id
		FROM stats_dirty d
		JOIN files f ON f.id = d.file_id
		WHERE f.series_id IS NOT NULL
	`)
	if err != nil {
		return fmt.Errorf("list dirty series: %w", err)
	}
	defer rows.Close()

	var seriesIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan dirty series: %w", err)
		}
		seriesIDs = append(seriesIDs, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows err: %w", err)
	}

	for _, id := range seriesIDs {
		if err := s.RecomputeSeriesProgress(ctx, id); err != nil {
			return err
		}
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM stats_dirty`); err != nil {
		return fmt.Errorf("clear dirty flags: %w", err)
	}
	if len(seriesIDs) > 0 {
		s.Logger.Printf("[stats] recomputed %d series", len(seriesIDs))
	}
	return nil
}

// RecomputeSeriesProgress rebuilds one series' rollup row from its files.
func (s *Service) RecomputeSeriesProgress(ctx context.Context, seriesID string) error {
	if seriesID == "" {
		return nil
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO series_stats (series_id, file_count, first_number, last_number, computed_at)
		SELECT ?, COUNT(*),
		       MIN(json_extract(metadata, '$.number')),
		       MAX(json_extract(metadata, '$.number')),
		       CURRENT_TIMESTAMP
		FROM files WHERE series_id = ?
		ON CONFLICT(series_id) DO UPDATE SET
			file_count = excluded.file_count,
			first_number = excluded.first_number,
			last_number = excluded.last_number,
			computed_at = excluded.computed_at
	`, seriesID, seriesID)
	if err != nil {
		return fmt.Errorf("recompute series %s: %w", seriesID, err)
	}
	return nil
}

// DirtyCount reports how many files await processing.
func (s *Service) DirtyCount(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM stats_dirty`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dirty: %w", err)
	}
	return n, nil
}
