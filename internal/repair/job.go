package repair

import (
	"context"
	"fmt"
	"log"
	"strings"

	"comichub/internal/invalidate"
	"comichub/internal/library"
	"comichub/pkg/models"
)

// MetadataWriter persists corrected metadata back to the cache and on-disk
// sidecar. Injected at construction; the archive package implements it.
type MetadataWriter interface {
	WriteFileMetadata(ctx context.Context, fileID string, md *models.FileMetadata) error
}

// Job scans for files whose cached metadata disagrees with their series link
// and fixes each one independently. A broken file never aborts the run.
type Job struct {
	Files    *library.FileRepo
	Series   *library.SeriesRepo
	Linker   invalidate.Linker
	Stats    invalidate.StatsTracker
	Notifier invalidate.Notifier
	Writer   MetadataWriter
	Logger   *log.Logger
}

// Mismatch is one file whose metadata series name and linked series name
// disagree. An unlinked file with a metadata series name also counts.
type Mismatch struct {
	FileID         string `json:"file_id"`
	Path           string `json:"path"`
	MetadataSeries string `json:"metadata_series"`
	LinkedSeriesID string `json:"linked_series_id,omitempty"`
	LinkedSeries   string `json:"linked_series,omitempty"`
}

// Repair outcomes.
const (
	OutcomeRelinked = "relinked"
	OutcomeCreated  = "created"
	OutcomeError    = "error"
)

// Detail is the per-file record in a repair report.
type Detail struct {
	FileID           string `json:"file_id"`
	Outcome          string `json:"outcome"`
	PreviousSeriesID string `json:"previous_series_id,omitempty"`
	NewSeriesID      string `json:"new_series_id,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Report aggregates one repair run.
type Report struct {
	TotalMismatched  int      `json:"total_mismatched"`
	Repaired         int      `json:"repaired"`
	NewSeriesCreated int      `json:"new_series_created"`
	Errors           []string `json:"errors,omitempty"`
	Details          []Detail `json:"details,omitempty"`
}

// Options filters and instruments a repair run. OnProgress, when set, is
// invoked after each file so long runs can report incrementally.
type Options struct {
	FileIDs    []string
	OnProgress func(current, total int, description string)
}

func (j *Job) logger() *log.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return log.Default()
}

// FindMismatches scans every file with cached metadata and returns those
// whose metadata series name disagrees, case-insensitively, with the linked
// series name.
func (j *Job) FindMismatches(ctx context.Context) ([]Mismatch, error) {
	files, err := j.Files.ListWithMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	// One pass over series instead of a lookup per file.
	all, err := j.Series.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	names := make(map[string]string, len(all))
	for _, s := range all {
		names[s.ID] = s.Name
	}

	var out []Mismatch
	for _, f := range files {
		if f.Metadata == nil {
			continue
		}
		metaName := strings.TrimSpace(f.Metadata.SeriesName)
		if metaName == "" {
			continue
		}
		linkedName := names[f.SeriesID]
		if f.SeriesID != "" && strings.EqualFold(metaName, strings.TrimSpace(linkedName)) {
			continue
		}
		out = append(out, Mismatch{
			FileID:         f.ID,
			Path:           f.Path,
			MetadataSeries: metaName,
			LinkedSeriesID: f.SeriesID,
			LinkedSeries:   linkedName,
		})
	}
	return out, nil
}

// Repair fixes every mismatch sequentially, one file at a time, and reports
// per-item outcomes. Re-running with no intervening metadata change finds
// nothing to do.
func (j *Job) Repair(ctx context.Context, opts Options) Report {
	var report Report

	mismatches, err := j.FindMismatches(ctx)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}
	if len(opts.FileIDs) > 0 {
		wanted := make(map[string]bool, len(opts.FileIDs))
		for _, id := range opts.FileIDs {
			wanted[id] = true
		}
		filtered := mismatches[:0]
		for _, m := range mismatches {
			if wanted[m.FileID] {
				filtered = append(filtered, m)
			}
		}
		mismatches = filtered
	}

	report.TotalMismatched = len(mismatches)
	if len(mismatches) == 0 {
		return report
	}

	affected := make(map[string]bool)
	for i, m := range mismatches {
		detail := Detail{FileID: m.FileID, PreviousSeriesID: m.LinkedSeriesID}

		lr := j.Linker.AutoLink(ctx, m.FileID, library.AutoLinkOptions{TrustMetadata: true})
		if lr.Success {
			detail.NewSeriesID = lr.SeriesID
			if lr.MatchType == library.MatchCreated {
				detail.Outcome = OutcomeCreated
				report.NewSeriesCreated++
			} else {
				detail.Outcome = OutcomeRelinked
			}
			report.Repaired++
			if m.LinkedSeriesID != "" {
				affected[m.LinkedSeriesID] = true
			}
			affected[lr.SeriesID] = true
		} else {
			detail.Outcome = OutcomeError
			detail.Error = lr.Error
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", m.FileID, lr.Error))
		}
		report.Details = append(report.Details, detail)

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(mismatches), fmt.Sprintf("%s -> %q", m.FileID, m.MetadataSeries))
		}
	}

	for id := range affected {
		if err := j.Stats.RecomputeSeriesProgress(ctx, id); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("recompute series %s: %v", id, err))
		}
	}
	if len(affected) > 0 {
		ids := make([]string, 0, len(affected))
		for id := range affected {
			ids = append(ids, id)
		}
		j.Notifier.NotifySeriesChanged(ids)
	}

	j.logger().Printf("[repair] %d mismatched, %d repaired, %d created, %d errors",
		report.TotalMismatched, report.Repaired, report.NewSeriesCreated, len(report.Errors))
	return report
}
