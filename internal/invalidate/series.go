package invalidate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"comichub/pkg/models"
)

// Inheritable field names for SeriesOptions.
const (
	InheritSeriesName = "series_name"
	InheritPublisher  = "publisher"
	InheritStartYear  = "start_year"
)

// SeriesOptions controls a series invalidation.
type SeriesOptions struct {
	SyncToSeriesJSON  bool
	SyncToIssueFiles  bool
	InheritableFields []string
}

// DefaultSeriesOptions writes the sidecar and leaves issue files alone.
func DefaultSeriesOptions() SeriesOptions {
	return SeriesOptions{SyncToSeriesJSON: true}
}

// InvalidateSeries re-propagates a series' metadata: sidecar file, optional
// inheritance onto linked files, stats, subscribers. Only a missing series
// fails the call; a sidecar write error is recorded and the rest proceeds.
func (o *Orchestrator) InvalidateSeries(ctx context.Context, seriesID string, opts SeriesOptions) (res SeriesResult) {
	defer func() {
		if r := recover(); r != nil {
			res = SeriesResult{Errors: []string{fmt.Sprintf("unexpected error invalidating series %s: %v", seriesID, r)}}
		}
	}()

	unlock := o.locks.lock("series:" + seriesID)
	defer unlock()

	series, err := o.Series.GetByID(ctx, seriesID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("load series: %v", err))
		return res
	}
	if series == nil {
		res.Errors = append(res.Errors, fmt.Sprintf("series %s not found", seriesID))
		return res
	}

	if opts.SyncToSeriesJSON && series.FolderPath != "" {
		if err := o.Sidecar.WriteSeriesSidecar(ctx, seriesID); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("write sidecar: %v", err))
		} else {
			res.SidecarWritten = true
		}
	}

	if opts.SyncToIssueFiles && len(opts.InheritableFields) > 0 {
		res.FilesUpdated = o.inheritToFiles(ctx, series, opts.InheritableFields, &res)
		if res.FilesUpdated > 0 {
			if err := o.Stats.TriggerDirtyProcessing(ctx); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("trigger stats processing: %v", err))
			}
		}
	}

	res.Success = true
	o.Notifier.NotifySeriesChanged([]string{seriesID})
	return res
}

// inheritToFiles copies the named series fields onto every linked file's
// cached metadata, tagging the rows as series-inherited. Per-file failures
// are recorded and the loop continues.
func (o *Orchestrator) inheritToFiles(ctx context.Context, series *models.Series, fields []string, res *SeriesResult) int {
	files, err := o.Files.ListBySeries(ctx, series.ID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list series files: %v", err))
		return 0
	}

	updated := 0
	for _, file := range files {
		md := file.Metadata
		if md == nil {
			md = &models.FileMetadata{}
		}
		for _, f := range fields {
			switch strings.ToLower(strings.TrimSpace(f)) {
			case InheritSeriesName:
				md.SeriesName = series.Name
			case InheritPublisher:
				md.Publisher = series.Publisher
			case InheritStartYear:
				md.StartYear = series.StartYear
			}
		}
		if err := o.Files.UpdateMetadata(ctx, file.ID, md, true); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("update file %s: %v", file.ID, err))
			continue
		}
		if err := o.Stats.MarkDirty(ctx, file.ID); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("mark file %s dirty: %v", file.ID, err))
		}
		updated++
	}
	return updated
}

// InvalidateAfterBulkApply runs the cascade that follows a bulk metadata
// apply: per-file refresh and conditional relink for every file the apply
// succeeded on, progress recomputes for every affected series, one batched
// stats pass, one batch notification. Empty input returns a well-formed
// zero result without touching any collaborator.
func (o *Orchestrator) InvalidateAfterBulkApply(ctx context.Context, processed []ProcessedFile, affectedSeries map[string]struct{}) BulkApplyResult {
	var result BulkApplyResult
	if len(processed) == 0 && len(affectedSeries) == 0 {
		return result
	}

	var updatedFiles, seriesChanged []string
	for _, p := range processed {
		if !p.Success {
			continue
		}
		unlock := o.locks.lock(p.FileID)
		res, changed := o.invalidateFileLocked(ctx, p.FileID, DefaultFileOptions())
		unlock()

		if res.Success {
			result.FilesProcessed++
			updatedFiles = append(updatedFiles, p.FileID)
			seriesChanged = append(seriesChanged, changed...)
		} else {
			result.Errors = append(result.Errors, BatchError{FileID: p.FileID, Error: strings.Join(res.Errors, "; ")})
		}
	}

	// Affected series are pre-supplied by the caller (files that moved
	// series during the apply); sorted for a deterministic recompute order.
	ids := make([]string, 0, len(affectedSeries))
	for id := range affectedSeries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := o.Stats.RecomputeSeriesProgress(ctx, id); err != nil {
			result.Errors = append(result.Errors, BatchError{FileID: "", Error: fmt.Sprintf("recompute series %s: %v", id, err)})
			continue
		}
		result.SeriesProcessed++
	}

	if result.FilesProcessed > 0 {
		if err := o.Stats.TriggerDirtyProcessing(ctx); err != nil {
			result.Errors = append(result.Errors, BatchError{Error: fmt.Sprintf("trigger stats processing: %v", err)})
		}
	}

	if result.FilesProcessed > 0 || result.SeriesProcessed > 0 {
		o.Notifier.NotifyMetadataChanged(ScopeBatch, updatedFiles, dedupe(append(seriesChanged, ids...)))
	}
	return result
}
