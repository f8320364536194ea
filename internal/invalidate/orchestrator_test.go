package invalidate_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"comichub/internal/invalidate"
	"comichub/internal/library"
	"comichub/internal/testsupport"
	"comichub/pkg/models"
)

type fakeCache struct {
	files      *library.FileRepo
	refreshErr map[string]error
	panicOn    string

	mu        sync.Mutex
	refreshed []string
}

func (f *fakeCache) RefreshFromArchive(ctx context.Context, fileID string) error {
	if fileID == f.panicOn {
		panic("archive reader blew up")
	}
	if err := f.refreshErr[fileID]; err != nil {
		return err
	}
	f.mu.Lock()
	f.refreshed = append(f.refreshed, fileID)
	f.mu.Unlock()
	return nil
}

func (f *fakeCache) CacheMetadata(ctx context.Context, fileID string, md *models.FileMetadata) error {
	return f.files.UpdateMetadata(ctx, fileID, md, false)
}

type fakeLinker struct {
	files   *library.FileRepo
	results map[string]library.LinkResult
	// unlinkOnFailure simulates a linker that got partway before failing,
	// leaving the file unlinked.
	unlinkOnFailure bool

	mu    sync.Mutex
	calls []string
}

func (f *fakeLinker) AutoLink(ctx context.Context, fileID string, opts library.AutoLinkOptions) library.LinkResult {
	f.mu.Lock()
	f.calls = append(f.calls, fileID)
	f.mu.Unlock()

	lr := f.results[fileID]
	if lr.Success {
		_ = f.files.RestoreLink(ctx, fileID, lr.SeriesID)
	} else if f.unlinkOnFailure {
		_ = f.files.RestoreLink(ctx, fileID, "")
	}
	return lr
}

func (f *fakeLinker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeStats struct {
	mu         sync.Mutex
	dirty      []string
	recomputed []string
	triggered  int
	markErr    error
}

func (f *fakeStats) MarkDirty(ctx context.Context, fileID string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.mu.Lock()
	f.dirty = append(f.dirty, fileID)
	f.mu.Unlock()
	return nil
}

func (f *fakeStats) TriggerDirtyProcessing(ctx context.Context) error {
	f.mu.Lock()
	f.triggered++
	f.mu.Unlock()
	return nil
}

func (f *fakeStats) RecomputeSeriesProgress(ctx context.Context, seriesID string) error {
	f.mu.Lock()
	f.recomputed = append(f.recomputed, seriesID)
	f.mu.Unlock()
	return nil
}

type fakeSearch struct {
	mu        sync.Mutex
	refreshed []string
	err       error
}

func (f *fakeSearch) RefreshFromFile(ctx context.Context, fileID string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.refreshed = append(f.refreshed, fileID)
	f.mu.Unlock()
	return nil
}

type notification struct {
	kind      string
	scope     string
	fileIDs   []string
	seriesIDs []string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (f *fakeNotifier) NotifyFilesChanged(fileIDs []string) {
	f.mu.Lock()
	f.events = append(f.events, notification{kind: "files", fileIDs: fileIDs})
	f.mu.Unlock()
}

func (f *fakeNotifier) NotifySeriesChanged(seriesIDs []string) {
	f.mu.Lock()
	f.events = append(f.events, notification{kind: "series", seriesIDs: seriesIDs})
	f.mu.Unlock()
}

func (f *fakeNotifier) NotifyMetadataChanged(scope string, fileIDs, seriesIDs []string) {
	f.mu.Lock()
	f.events = append(f.events, notification{kind: "metadata", scope: scope, fileIDs: fileIDs, seriesIDs: seriesIDs})
	f.mu.Unlock()
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeSidecar struct {
	err     error
	written []string
}

func (f *fakeSidecar) WriteSeriesSidecar(ctx context.Context, seriesID string) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, seriesID)
	return nil
}

type fixture struct {
	db       *sql.DB
	orch     *invalidate.Orchestrator
	files    *library.FileRepo
	series   *library.SeriesRepo
	cache    *fakeCache
	linker   *fakeLinker
	stats    *fakeStats
	search   *fakeSearch
	notifier *fakeNotifier
	sidecar  *fakeSidecar
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testsupport.OpenDB(t)
	files := library.NewFileRepo(db)
	series := library.NewSeriesRepo(db)

	f := &fixture{
		db:       db,
		files:    files,
		series:   series,
		cache:    &fakeCache{files: files, refreshErr: map[string]error{}},
		linker:   &fakeLinker{files: files, results: map[string]library.LinkResult{}},
		stats:    &fakeStats{},
		search:   &fakeSearch{},
		notifier: &fakeNotifier{},
		sidecar:  &fakeSidecar{},
	}
	f.orch = &invalidate.Orchestrator{
		Files:    files,
		Series:   series,
		Cache:    f.cache,
		Linker:   f.linker,
		Stats:    f.stats,
		Search:   f.search,
		Notifier: f.notifier,
		Sidecar:  f.sidecar,
	}

	// A library with one linked file whose metadata agrees with its series.
	testsupport.InsertSeries(t, db, models.Series{ID: "s-batman", Name: "Batman", Publisher: "DC Comics"})
	testsupport.InsertFile(t, db, models.File{
		ID:       "f-1",
		SeriesID: "s-batman",
		Metadata: &models.FileMetadata{SeriesName: "Batman", Publisher: "DC"},
	})
	return f
}

func TestInvalidateFileHappyPath(t *testing.T) {
	f := newFixture(t)

	res := f.orch.InvalidateFile(context.Background(), "f-1", invalidate.DefaultFileOptions())
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if !res.CacheRefreshed {
		t.Fatal("expected cache refresh")
	}
	if res.SeriesLinkageUpdated {
		t.Fatal("agreeing linkage must not be rewritten")
	}
	if len(f.stats.dirty) != 1 || f.stats.dirty[0] != "f-1" {
		t.Fatalf("stats dirty = %v", f.stats.dirty)
	}
	if len(f.search.refreshed) != 1 {
		t.Fatalf("search refreshed = %v", f.search.refreshed)
	}
	if f.notifier.count() != 1 || f.notifier.events[0].kind != "files" {
		t.Fatalf("notifications = %+v", f.notifier.events)
	}
}

func TestInvalidateFileCaseInsensitiveLinkageAgreement(t *testing.T) {
	f := newFixture(t)
	if err := f.files.UpdateMetadata(context.Background(), "f-1",
		&models.FileMetadata{SeriesName: "BATMAN", Publisher: "DC"}, false); err != nil {
		t.Fatalf("seed metadata: %v", err)
	}

	res := f.orch.InvalidateFile(context.Background(), "f-1", invalidate.FileOptions{UpdateSeriesLinkage: true})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if f.linker.callCount() != 0 {
		t.Fatal("case-only difference must never trigger a relink attempt")
	}
}

func TestInvalidateFileRefreshFailureFailsFast(t *testing.T) {
	f := newFixture(t)
	f.cache.refreshErr["f-1"] = errors.New("archive unreadable")

	res := f.orch.InvalidateFile(context.Background(), "f-1", invalidate.DefaultFileOptions())
	if res.Success {
		t.Fatal("upstream refresh failure must fail the call")
	}
	if len(f.stats.dirty) != 0 || len(f.search.refreshed) != 0 {
		t.Fatal("nothing downstream may run after a refresh failure")
	}
	if f.notifier.count() != 0 {
		t.Fatal("no notification on failure")
	}
}

func TestInvalidateFileNotFound(t *testing.T) {
	f := newFixture(t)
	res := f.orch.InvalidateFile(context.Background(), "missing", invalidate.FileOptions{UpdateSeriesLinkage: true})
	if res.Success {
		t.Fatalf("expected not-found failure, got %+v", res)
	}
}

func TestInvalidateFileRelinkSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Metadata now names a different series.
	if err := f.files.UpdateMetadata(ctx, "f-1", &models.FileMetadata{SeriesName: "Saga"}, false); err != nil {
		t.Fatalf("seed metadata: %v", err)
	}
	f.linker.results["f-1"] = library.LinkResult{Success: true, SeriesID: "s-saga", MatchType: library.MatchCreated}

	res := f.orch.InvalidateFile(ctx, "f-1", invalidate.FileOptions{UpdateSeriesLinkage: true})
	if !res.Success || !res.SeriesLinkageUpdated {
		t.Fatalf("expected relink, got %+v", res)
	}

	// Progress recomputed on both the old and the new series.
	if len(f.stats.recomputed) != 2 {
		t.Fatalf("recomputed = %v, want old and new series", f.stats.recomputed)
	}
}

func TestInvalidateFileRelinkFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.files.UpdateMetadata(ctx, "f-1", &models.FileMetadata{SeriesName: "Saga"}, false); err != nil {
		t.Fatalf("seed metadata: %v", err)
	}
	f.linker.results["f-1"] = library.LinkResult{Error: "no match and create failed"}
	f.linker.unlinkOnFailure = true

	res := f.orch.InvalidateFile(ctx, "f-1", invalidate.FileOptions{UpdateSeriesLinkage: true})
	if !res.Success {
		t.Fatalf("relink failure is not a pipeline failure: %+v", res)
	}
	if res.SeriesLinkageUpdated {
		t.Fatal("no linkage update on failed relink")
	}

	file, err := f.files.GetByID(ctx, "f-1")
	if err != nil {
		t.Fatalf("reload file: %v", err)
	}
	if file.SeriesID != "s-batman" {
		t.Fatalf("series link = %q after failed relink, want restored s-batman", file.SeriesID)
	}
}

func TestInvalidateFilePanicIsConverted(t *testing.T) {
	f := newFixture(t)
	f.cache.panicOn = "f-1"

	res := f.orch.InvalidateFile(context.Background(), "f-1", invalidate.DefaultFileOptions())
	if res.Success {
		t.Fatal("panic must surface as a failed result")
	}
	if len(res.Errors) == 0 {
		t.Fatal("panic must be reported in errors")
	}
}

func TestBatchInvalidateIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testsupport.InsertFile(t, f.db, models.File{
		ID:       "f-2",
		SeriesID: "s-batman",
		Metadata: &models.FileMetadata{SeriesName: "Batman"},
	})
	f.cache.refreshErr["f-2"] = errors.New("corrupt archive")

	br := f.orch.BatchInvalidateFiles(ctx, []string{"f-1", "f-2"}, invalidate.DefaultFileOptions())
	if br.Total != 2 || br.Successful != 1 || br.Failed != 1 {
		t.Fatalf("batch = %+v, want total 2 successful 1 failed 1", br)
	}
	if len(br.Errors) != 1 || br.Errors[0].FileID != "f-2" {
		t.Fatalf("batch errors = %+v", br.Errors)
	}
	if len(br.UpdatedFileIDs) != 1 || br.UpdatedFileIDs[0] != "f-1" {
		t.Fatalf("updated ids = %v", br.UpdatedFileIDs)
	}

	// The healthy file's side effects still landed.
	if len(f.search.refreshed) != 1 || f.search.refreshed[0] != "f-1" {
		t.Fatalf("search refreshed = %v", f.search.refreshed)
	}
}

func TestBatchInvalidateSingleNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"f-2", "f-3", "f-4"} {
		testsupport.InsertFile(t, f.db, models.File{
			ID:       id,
			SeriesID: "s-batman",
			Metadata: &models.FileMetadata{SeriesName: "Batman"},
		})
	}

	br := f.orch.BatchInvalidateFiles(ctx, []string{"f-1", "f-2", "f-3", "f-4"}, invalidate.DefaultFileOptions())
	if br.Total != 4 || br.Successful != 4 {
		t.Fatalf("batch = %+v, want 4 successes", br)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("got %d notifications, want one batch notification", f.notifier.count())
	}
	ev := f.notifier.events[0]
	if ev.kind != "metadata" || ev.scope != invalidate.ScopeBatch {
		t.Fatalf("notification = %+v", ev)
	}
	if len(ev.fileIDs) != 4 {
		t.Fatalf("notified file ids = %v", ev.fileIDs)
	}
}

func TestBatchInvalidatePanicDoesNotPoisonOthers(t *testing.T) {
	f := newFixture(t)
	testsupport.InsertFile(t, f.db, models.File{
		ID:       "f-2",
		SeriesID: "s-batman",
		Metadata: &models.FileMetadata{SeriesName: "Batman"},
	})
	f.cache.panicOn = "f-2"

	br := f.orch.BatchInvalidateFiles(context.Background(), []string{"f-1", "f-2"}, invalidate.DefaultFileOptions())
	if br.Successful != 1 || br.Failed != 1 {
		t.Fatalf("batch = %+v, want the panic isolated to its file", br)
	}
}

func TestInvalidateAfterBulkApplyEmptyInput(t *testing.T) {
	f := newFixture(t)

	br := f.orch.InvalidateAfterBulkApply(context.Background(), nil, nil)
	if br.FilesProcessed != 0 || br.SeriesProcessed != 0 || len(br.Errors) != 0 {
		t.Fatalf("empty bulk apply = %+v, want zero result", br)
	}
	if f.notifier.count() != 0 || len(f.cache.refreshed) != 0 || f.stats.triggered != 0 {
		t.Fatal("empty bulk apply must not touch collaborators")
	}
}

func TestInvalidateAfterBulkApply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testsupport.InsertSeries(t, f.db, models.Series{ID: "s-saga", Name: "Saga", Publisher: "Image Comics"})
	testsupport.InsertFile(t, f.db, models.File{
		ID:       "f-2",
		SeriesID: "s-saga",
		Metadata: &models.FileMetadata{SeriesName: "Saga"},
	})

	processed := []invalidate.ProcessedFile{
		{FileID: "f-1", Success: true},
		{FileID: "f-2", Success: true},
		{FileID: "f-3", Success: false}, // upstream failure, skipped here
	}
	br := f.orch.InvalidateAfterBulkApply(ctx, processed, map[string]struct{}{"s-batman": {}, "s-saga": {}})
	if br.FilesProcessed != 2 || br.SeriesProcessed != 2 {
		t.Fatalf("bulk apply = %+v", br)
	}
	if f.stats.triggered != 1 {
		t.Fatalf("dirty processing triggered %d times, want once", f.stats.triggered)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("got %d notifications, want one", f.notifier.count())
	}
	ev := f.notifier.events[0]
	if len(ev.seriesIDs) != 2 {
		t.Fatalf("affected series = %v, want both", ev.seriesIDs)
	}
}
