package repair

import (
	"context"
	"fmt"
)

// SyncFileMetadataToSeries is the inverse repair: the link is trusted and
// the metadata is stale, so the cached series name is overwritten to match
// the currently linked series. Fails cleanly when the file is unlinked.
func (j *Job) SyncFileMetadataToSeries(ctx context.Context, fileID string) error {
	file, err := j.Files.GetByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("load file: %w", err)
	}
	if file == nil {
		return fmt.Errorf("file %s not found", fileID)
	}
	if file.SeriesID == "" {
		return fmt.Errorf("file %s is not linked to a series", fileID)
	}
	if file.Metadata == nil {
		return fmt.Errorf("file %s has no cached metadata", fileID)
	}

	series, err := j.Series.GetByID(ctx, file.SeriesID)
	if err != nil {
		return fmt.Errorf("load series: %w", err)
	}
	if series == nil {
		return fmt.Errorf("series %s not found", file.SeriesID)
	}

	md := *file.Metadata
	md.SeriesName = series.Name
	if series.Publisher != "" {
		md.Publisher = series.Publisher
	}

	if err := j.Writer.WriteFileMetadata(ctx, fileID, &md); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// SyncResult aggregates the batched variant.
type SyncResult struct {
	Total  int      `json:"total"`
	Synced int      `json:"synced"`
	Errors []string `json:"errors,omitempty"`
}

// SyncAllFileMetadataToSeries runs SyncFileMetadataToSeries per ID,
// isolating failures.
func (j *Job) SyncAllFileMetadataToSeries(ctx context.Context, fileIDs []string) SyncResult {
	result := SyncResult{Total: len(fileIDs)}
	for _, id := range fileIDs {
		if err := j.SyncFileMetadataToSeries(ctx, id); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		result.Synced++
	}
	return result
}
