package invalidate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"comichub/internal/library"
	"comichub/internal/metadata"
	"comichub/pkg/models"
)

// Orchestrator re-derives and propagates a changed entity's cached state
// across every dependent store: metadata cache, series linkage, dirty stats,
// search terms, live subscribers. Single-item operations never return an
// error; they report through Result so batches stay isolated.
type Orchestrator struct {
	Files    *library.FileRepo
	Series   *library.SeriesRepo
	Cache    MetadataCache
	Linker   Linker
	Stats    StatsTracker
	Search   SearchIndex
	Notifier Notifier
	Sidecar  SidecarWriter

	// Workers bounds batch concurrency; per-entity locks keep two in-flight
	// operations off the same file regardless.
	Workers int
	Logger  *log.Logger

	locks keyLock
}

// FileOptions controls a single-file invalidation. ComicInfo, when set, is
// cached directly and the archive is not re-read.
type FileOptions struct {
	ComicInfo           *models.FileMetadata
	RefreshFromArchive  bool
	UpdateSeriesLinkage bool
}

// DefaultFileOptions re-reads the archive and checks linkage.
func DefaultFileOptions() FileOptions {
	return FileOptions{RefreshFromArchive: true, UpdateSeriesLinkage: true}
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

// InvalidateFile runs the full per-file cascade and notifies subscribers.
func (o *Orchestrator) InvalidateFile(ctx context.Context, fileID string, opts FileOptions) Result {
	unlock := o.locks.lock(fileID)
	defer unlock()

	res, seriesChanged := o.invalidateFileLocked(ctx, fileID, opts)
	if res.Success {
		o.Notifier.NotifyFilesChanged([]string{fileID})
		if len(seriesChanged) > 0 {
			o.Notifier.NotifySeriesChanged(seriesChanged)
		}
	}
	return res
}

// invalidateFileLocked is the notification-free core shared by the single,
// batch and bulk-apply entry points. The caller must hold the file's lock.
func (o *Orchestrator) invalidateFileLocked(ctx context.Context, fileID string, opts FileOptions) (res Result, seriesChanged []string) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Sprintf("unexpected error invalidating %s: %v", fileID, r))
			seriesChanged = nil
		}
	}()

	// Step 1: refresh the cache. This is load-bearing; a failure here fails
	// the whole call since everything downstream reads the refreshed state.
	switch {
	case opts.ComicInfo != nil:
		if err := o.Cache.CacheMetadata(ctx, fileID, opts.ComicInfo); err != nil {
			return failure(fmt.Sprintf("cache metadata: %v", err)), nil
		}
		res.CacheRefreshed = true
	case opts.RefreshFromArchive:
		if err := o.Cache.RefreshFromArchive(ctx, fileID); err != nil {
			return failure(fmt.Sprintf("refresh from archive: %v", err)), nil
		}
		res.CacheRefreshed = true
	}

	// Step 2: reload the file with fresh metadata and current link.
	file, err := o.Files.GetByID(ctx, fileID)
	if err != nil {
		return failure(fmt.Sprintf("load file: %v", err)), nil
	}
	if file == nil {
		return failure(fmt.Sprintf("file %s not found", fileID)), nil
	}

	// Step 3: check and repair the series link, rolling back on failure.
	if opts.UpdateSeriesLinkage && file.Metadata != nil && strings.TrimSpace(file.Metadata.SeriesName) != "" {
		seriesChanged = o.relink(ctx, file, &res)
	}

	// Step 4: best-effort downstream refreshes. Failures are recorded but
	// never flip the overall outcome.
	if err := o.Stats.MarkDirty(ctx, fileID); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("mark stats dirty: %v", err))
	}
	if err := o.Search.RefreshFromFile(ctx, fileID); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("refresh search terms: %v", err))
	}

	res.Success = true
	return res, seriesChanged
}

// relink compares the file's metadata series name against its current link
// and re-links when they disagree. A failed relink restores the prior link
// so the file never ends up silently unlinked.
func (o *Orchestrator) relink(ctx context.Context, file *models.File, res *Result) (seriesChanged []string) {
	md := file.Metadata
	prev := file.SeriesID

	if prev != "" {
		linked, err := o.Series.GetByID(ctx, prev)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("load linked series: %v", err))
		} else if linked != nil && linkageAgrees(md, linked) {
			return nil
		}
	}

	lr := o.Linker.AutoLink(ctx, file.ID, library.AutoLinkOptions{TrustMetadata: true})
	res.Warnings = append(res.Warnings, lr.Warnings...)

	if !lr.Success {
		res.Warnings = append(res.Warnings, fmt.Sprintf("relink failed: %s", lr.Error))
		if prev != "" {
			if err := o.Files.RestoreLink(ctx, file.ID, prev); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("restore previous link: %v", err))
			} else {
				o.logger().Printf("[invalidate] relink of %s failed, restored series %s", file.ID, prev)
			}
		}
		return nil
	}

	res.SeriesLinkageUpdated = true
	for _, id := range uniqueIDs(prev, lr.SeriesID) {
		if err := o.Stats.RecomputeSeriesProgress(ctx, id); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("recompute series %s: %v", id, err))
		}
		seriesChanged = append(seriesChanged, id)
	}
	return seriesChanged
}

// linkageAgrees is the no-relink predicate: series names equal ignoring
// case, and publishers equal when both sides have one.
func linkageAgrees(md *models.FileMetadata, linked *models.Series) bool {
	if !strings.EqualFold(strings.TrimSpace(md.SeriesName), strings.TrimSpace(linked.Name)) {
		return false
	}
	if md.Publisher != "" && linked.Publisher != "" {
		return metadata.SamePublisher(md.Publisher, linked.Publisher)
	}
	return true
}

// BatchInvalidateFiles runs the per-file cascade independently for each ID.
// One file failing, or even panicking, never stops the rest. Subscribers get
// a single batch notification covering every file that succeeded.
func (o *Orchestrator) BatchInvalidateFiles(ctx context.Context, fileIDs []string, opts FileOptions) BatchResult {
	result := BatchResult{Total: len(fileIDs)}
	if len(fileIDs) == 0 {
		return result
	}

	workers := o.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > 8 {
		workers = 8
	}
	if workers > len(fileIDs) {
		workers = len(fileIDs)
	}

	var (
		mu            sync.Mutex
		wg            sync.WaitGroup
		seriesChanged []string
	)
	jobs := make(chan string)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				unlock := o.locks.lock(id)
				res, changed := o.invalidateFileLocked(ctx, id, opts)
				unlock()

				mu.Lock()
				if res.Success {
					result.Successful++
					result.UpdatedFileIDs = append(result.UpdatedFileIDs, id)
					seriesChanged = append(seriesChanged, changed...)
				} else {
					result.Failed++
					result.Errors = append(result.Errors, BatchError{FileID: id, Error: strings.Join(res.Errors, "; ")})
				}
				mu.Unlock()
			}
		}()
	}

	for _, id := range fileIDs {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	if result.Successful > 0 {
		o.Notifier.NotifyMetadataChanged(ScopeBatch, result.UpdatedFileIDs, dedupe(seriesChanged))
	}
	return result
}

func uniqueIDs(ids ...string) []string {
	var out []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func dedupe(ids []string) []string {
	return uniqueIDs(ids...)
}
