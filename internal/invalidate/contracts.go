package invalidate

import (
	"context"

	"comichub/internal/library"
	"comichub/pkg/models"
)

// Collaborator contracts. Concrete implementations live in archive, library,
// stats, search and sync; the orchestrator only sees these interfaces so
// tests can substitute failures at any step.

// MetadataCache keeps a file's flattened metadata in sync with its archive.
type MetadataCache interface {
	RefreshFromArchive(ctx context.Context, fileID string) error
	CacheMetadata(ctx context.Context, fileID string, md *models.FileMetadata) error
}

// Linker resolves a file's series link from its cached metadata.
type Linker interface {
	AutoLink(ctx context.Context, fileID string, opts library.AutoLinkOptions) library.LinkResult
}

// StatsTracker flags stale aggregate contributions and recomputes rollups.
type StatsTracker interface {
	MarkDirty(ctx context.Context, fileID string) error
	TriggerDirtyProcessing(ctx context.Context) error
	RecomputeSeriesProgress(ctx context.Context, seriesID string) error
}

// SearchIndex refreshes autocomplete terms from a file's metadata.
type SearchIndex interface {
	RefreshFromFile(ctx context.Context, fileID string) error
}

// Notifier pushes change events to live subscribers. Notification cannot
// fail from the orchestrator's point of view.
type Notifier interface {
	NotifyFilesChanged(fileIDs []string)
	NotifySeriesChanged(seriesIDs []string)
	NotifyMetadataChanged(scope string, fileIDs, seriesIDs []string)
}

// SidecarWriter persists a series' metadata snapshot next to its files.
type SidecarWriter interface {
	WriteSeriesSidecar(ctx context.Context, seriesID string) error
}

// Notification scopes.
const (
	ScopeFile   = "file"
	ScopeSeries = "series"
	ScopeBatch  = "batch"
)

// Result is the structured outcome of a single-file invalidation. It is
// always returned, never thrown: batch callers aggregate without per-item
// error handling.
type Result struct {
	Success              bool     `json:"success"`
	CacheRefreshed       bool     `json:"cache_refreshed"`
	SeriesLinkageUpdated bool     `json:"series_linkage_updated"`
	RelatedFilesUpdated  int      `json:"related_files_updated"`
	Warnings             []string `json:"warnings,omitempty"`
	Errors               []string `json:"errors,omitempty"`
}

func failure(errs ...string) Result {
	return Result{Errors: errs}
}

// BatchError ties a per-item failure to the file that caused it.
type BatchError struct {
	FileID string `json:"file_id"`
	Error  string `json:"error"`
}

// BatchResult aggregates a batch invalidation.
type BatchResult struct {
	Total          int          `json:"total"`
	Successful     int          `json:"successful"`
	Failed         int          `json:"failed"`
	Errors         []BatchError `json:"errors,omitempty"`
	UpdatedFileIDs []string     `json:"updated_file_ids,omitempty"`
}

// SeriesResult is the structured outcome of a series invalidation.
type SeriesResult struct {
	Success        bool     `json:"success"`
	SidecarWritten bool     `json:"sidecar_written"`
	FilesUpdated   int      `json:"files_updated"`
	Warnings       []string `json:"warnings,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}

// ProcessedFile is one entry of a bulk metadata apply, as reported by the
// apply operation itself.
type ProcessedFile struct {
	FileID  string `json:"file_id"`
	Success bool   `json:"success"`
}

// BulkApplyResult aggregates the cascade that follows a bulk apply.
type BulkApplyResult struct {
	FilesProcessed  int          `json:"files_processed"`
	SeriesProcessed int          `json:"series_processed"`
	Errors          []BatchError `json:"errors,omitempty"`
}
