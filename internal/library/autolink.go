package library

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"comichub/internal/metadata"
	"comichub/pkg/models"
)

// Match types reported by AutoLink.
const (
	MatchExact   = "exact"
	MatchFuzzy   = "fuzzy"
	MatchCreated = "created"
)

// AutoLinkOptions controls linking behavior. TrustMetadata means the file's
// cached metadata is authoritative ground truth: when no existing series
// matches, a new one is created rather than leaving the file unlinked.
type AutoLinkOptions struct {
	TrustMetadata bool
}

// LinkResult is the structured outcome of one auto-link attempt. It is a
// value, never an error: callers branch on Success and aggregate freely.
type LinkResult struct {
	Success          bool     `json:"success"`
	SeriesID         string   `json:"series_id,omitempty"`
	PreviousSeriesID string   `json:"previous_series_id,omitempty"`
	MatchType        string   `json:"match_type,omitempty"`
	Error            string   `json:"error,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
}

// AutoLinker resolves a file's series link from its cached metadata:
// exact normalized-name lookup first, fuzzy best-match second, create-new
// last (when the metadata is trusted).
type AutoLinker struct {
	Files  *FileRepo
	Series *SeriesRepo
	Logger *log.Logger
}

func NewAutoLinker(files *FileRepo, series *SeriesRepo, logger *log.Logger) *AutoLinker {
	if logger == nil {
		logger = log.Default()
	}
	return &AutoLinker{Files: files, Series: series, Logger: logger}
}

func (l *AutoLinker) AutoLink(ctx context.Context, fileID string, opts AutoLinkOptions) LinkResult {
	file, err := l.Files.GetByID(ctx, fileID)
	if err != nil {
		return LinkResult{Error: fmt.Sprintf("load file: %v", err)}
	}
	if file == nil {
		return LinkResult{Error: fmt.Sprintf("file %s not found", fileID)}
	}
	if file.Metadata == nil || strings.TrimSpace(file.Metadata.SeriesName) == "" {
		return LinkResult{PreviousSeriesID: file.SeriesID, Error: "file has no metadata series name"}
	}

	result := LinkResult{PreviousSeriesID: file.SeriesID}
	md := file.Metadata

	all, err := l.Series.All(ctx)
	if err != nil {
		result.Error = fmt.Sprintf("list series: %v", err)
		return result
	}

	target := metadata.MatchCandidate{
		Name:      md.SeriesName,
		StartYear: md.StartYear,
		Publisher: md.Publisher,
	}

	seriesID, matchType, warnings := l.resolve(target, all)
	result.Warnings = warnings

	if seriesID == "" {
		if !opts.TrustMetadata {
			result.Error = fmt.Sprintf("no series matches %q", md.SeriesName)
			return result
		}
		created := models.Series{
			ID:        uuid.NewString(),
			Name:      md.SeriesName,
			Publisher: md.Publisher,
			StartYear: md.StartYear,
		}
		if err := l.Series.Create(ctx, created); err != nil {
			result.Error = fmt.Sprintf("create series: %v", err)
			return result
		}
		seriesID = created.ID
		matchType = MatchCreated
		l.Logger.Printf("[autolink] created series %q (%s) for file %s", created.Name, created.ID, fileID)
	}

	ok, err := l.Files.UpdateLink(ctx, fileID, seriesID, file.Version)
	if err != nil {
		result.Error = fmt.Sprintf("write link: %v", err)
		return result
	}
	if !ok {
		result.Error = "link changed concurrently, not overwritten"
		return result
	}

	result.Success = true
	result.SeriesID = seriesID
	result.MatchType = matchType
	return result
}

// resolve finds an existing series for the target. Exact normalized-name
// matches win outright; among several exact matches the one agreeing on
// publisher is preferred. Otherwise the fuzzy matcher decides.
func (l *AutoLinker) resolve(target metadata.MatchCandidate, all []models.Series) (seriesID, matchType string, warnings []string) {
	targetName := metadata.NormalizeName(target.Name)

	var exactID string
	for _, s := range all {
		if metadata.NormalizeName(s.Name) != targetName {
			continue
		}
		if target.Publisher != "" && s.Publisher != "" && metadata.SamePublisher(target.Publisher, s.Publisher) {
			return s.ID, MatchExact, nil
		}
		if exactID == "" {
			exactID = s.ID
		}
	}
	if exactID != "" {
		return exactID, MatchExact, nil
	}

	candidates := make([]metadata.MatchCandidate, 0, len(all))
	for _, s := range all {
		candidates = append(candidates, metadata.MatchCandidate{
			ID:        s.ID,
			Name:      s.Name,
			StartYear: s.StartYear,
			Publisher: s.Publisher,
		})
	}
	if best := metadata.FindBestMatch(target, candidates); best != nil {
		warnings = append(warnings, fmt.Sprintf(
			"fuzzy matched %q to series %s (score %d)", target.Name, best.Candidate.ID, best.Score))
		return best.Candidate.ID, MatchFuzzy, warnings
	}
	return "", "", nil
}
