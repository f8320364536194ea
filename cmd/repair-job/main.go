package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"comichub/internal/archive"
	"comichub/internal/invalidate"
	"comichub/internal/library"
	"comichub/internal/repair"
	"comichub/internal/stats"
	"comichub/pkg/database"
)

// logNotifier stands in for the live hub when running from the command line:
// subscribers become log lines.
type logNotifier struct{}

func (logNotifier) NotifyFilesChanged(fileIDs []string) {
	log.Printf("[notify] files changed: %s", strings.Join(fileIDs, ", "))
}

func (logNotifier) NotifySeriesChanged(seriesIDs []string) {
	log.Printf("[notify] series changed: %s", strings.Join(seriesIDs, ", "))
}

func (logNotifier) NotifyMetadataChanged(scope string, fileIDs, seriesIDs []string) {
	log.Printf("[notify] metadata changed (%s): %d files, %d series", scope, len(fileIDs), len(seriesIDs))
}

var _ invalidate.Notifier = logNotifier{}

func main() {
	var (
		dryRun      = flag.Bool("dry-run", false, "list mismatches without repairing")
		fileIDsFlag = flag.String("files", "", "comma-separated file IDs to restrict the run to")
	)
	flag.Parse()

	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	fileRepo := library.NewFileRepo(db)
	seriesRepo := library.NewSeriesRepo(db)
	cache := archive.NewCache(fileRepo, nil)

	job := &repair.Job{
		Files:    fileRepo,
		Series:   seriesRepo,
		Linker:   library.NewAutoLinker(fileRepo, seriesRepo, nil),
		Stats:    stats.NewService(db, nil),
		Notifier: logNotifier{},
		Writer:   cache,
	}

	ctx := context.Background()

	if *dryRun {
		mismatches, err := job.FindMismatches(ctx)
		if err != nil {
			log.Fatalf("scan failed: %v", err)
		}
		for _, m := range mismatches {
			linked := m.LinkedSeries
			if linked == "" {
				linked = "<unlinked>"
			}
			fmt.Printf("%s  %q -> %s\n", m.FileID, m.MetadataSeries, linked)
		}
		fmt.Printf("%d mismatched file(s)\n", len(mismatches))
		return
	}

	opts := repair.Options{
		OnProgress: func(current, total int, description string) {
			fmt.Printf("[%d/%d] %s\n", current, total, description)
		},
	}
	if *fileIDsFlag != "" {
		opts.FileIDs = strings.Split(*fileIDsFlag, ",")
	}

	report := job.Repair(ctx, opts)
	fmt.Printf("mismatched: %d  repaired: %d  created: %d  errors: %d\n",
		report.TotalMismatched, report.Repaired, report.NewSeriesCreated, len(report.Errors))
	for _, e := range report.Errors {
		fmt.Fprintf(os.Stderr, "error: %s\n", e)
	}
	if len(report.Errors) > 0 {
		os.Exit(1)
	}
}
