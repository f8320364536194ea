package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SidecarWriter writes a series.json snapshot next to the series' files so
// external tools see the same metadata the database holds. Resolved once at
// construction and injected where needed.
type SidecarWriter struct {
	Series *SeriesRepo
}

func NewSidecarWriter(series *SeriesRepo) *SidecarWriter {
	return &SidecarWriter{Series: series}
}

func (w *SidecarWriter) WriteSeriesSidecar(ctx context.Context, seriesID string) error {
	s, err := w.Series.GetByID(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("load series: %w", err)
	}
	if s == nil {
		return fmt.Errorf("series %s not found", seriesID)
	}
	if s.FolderPath == "" {
		return fmt.Errorf("series %s has no folder", seriesID)
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal series: %w", err)
	}

	path := filepath.Join(s.FolderPath, "series.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
