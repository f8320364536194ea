package metadata

import "comichub/pkg/models"

// MergedIssue is the authoritative combination of several providers' issue
// records. SeriesID/SeriesName come only from the primary source: an issue's
// series identity is never assembled from two different providers.
type MergedIssue struct {
	models.IssueRecord

	FieldSources         map[Field]models.Source
	ContributingSources  map[models.Source]bool
	AllFieldValues       map[Field]map[models.Source]any
	FieldSourceOverrides map[Field]models.Source
}

// MergeIssue folds per-source issue records into one merged record. Returns
// nil when every entry is nil.
func MergeIssue(records map[models.Source]*models.IssueRecord, opts MergeOptions) *MergedIssue {
	return mergeIssue(records, opts, false)
}

// MergeIssueWithAllValues is MergeIssue plus the per-source value map and
// application of opts.FieldOverrides.
func MergeIssueWithAllValues(records map[models.Source]*models.IssueRecord, opts MergeOptions) *MergedIssue {
	m := mergeIssue(records, opts, true)
	if m == nil || len(opts.FieldOverrides) == 0 {
		return m
	}
	return ApplyIssueOverrides(m, m.AllFieldValues, opts.FieldOverrides)
}

func mergeIssue(records map[models.Source]*models.IssueRecord, opts MergeOptions, collect bool) *MergedIssue {
	order := expandOrder(opts.PriorityOrder)

	var primary *models.IssueRecord
	nonNil := 0
	for _, src := range order {
		if rec := records[src]; rec != nil {
			nonNil++
			if primary == nil {
				primary = rec
			}
		}
	}
	if nonNil == 0 {
		return nil
	}

	m := &MergedIssue{
		FieldSources:        make(map[Field]models.Source),
		ContributingSources: make(map[models.Source]bool),
	}
	m.Source = primary.Source
	m.SourceID = primary.SourceID
	if collect {
		m.AllFieldValues = make(map[Field]map[models.Source]any)
	}

	// Series identity is taken whole from the primary source, never merged.
	m.SeriesID = primary.SeriesID
	m.SeriesName = primary.SeriesName
	if primary.SeriesID != "" {
		m.FieldSources[FieldSeriesID] = primary.Source
		m.ContributingSources[primary.Source] = true
	}
	if primary.SeriesName != "" {
		m.FieldSources[FieldSeriesName] = primary.Source
		m.ContributingSources[primary.Source] = true
	}

	e := &issueEval{records: records, order: order, merged: m, collect: collect}

	m.Number = e.str(FieldNumber, func(r *models.IssueRecord) string { return r.Number })
	m.Title = e.str(FieldTitle, func(r *models.IssueRecord) string { return r.Title })
	m.CoverDate = e.str(FieldCoverDate, func(r *models.IssueRecord) string { return r.CoverDate })
	m.StoreDate = e.str(FieldStoreDate, func(r *models.IssueRecord) string { return r.StoreDate })
	m.Summary = e.str(FieldSummary, func(r *models.IssueRecord) string { return r.Summary })
	m.CoverURL = e.str(FieldCoverURL, func(r *models.IssueRecord) string { return r.CoverURL })
	m.Rating = e.flt(FieldRating, func(r *models.IssueRecord) float64 { return r.Rating })
	m.Web = e.str(FieldWeb, func(r *models.IssueRecord) string { return r.Web })
	m.Creators = e.strs(FieldCreators, func(r *models.IssueRecord) []string { return r.Creators })
	m.Genres = e.strs(FieldGenres, func(r *models.IssueRecord) []string { return r.Genres })
	m.Characters = e.strs(FieldCharacters, func(r *models.IssueRecord) []string { return r.Characters })
	m.Teams = e.strs(FieldTeams, func(r *models.IssueRecord) []string { return r.Teams })
	m.Locations = e.strs(FieldLocations, func(r *models.IssueRecord) []string { return r.Locations })

	if nonNil == 1 {
		m.ContributingSources[primary.Source] = true
	}
	return m
}

type issueEval struct {
	records map[models.Source]*models.IssueRecord
	order   []models.Source
	merged  *MergedIssue
	collect bool
}

func (e *issueEval) str(f Field, get func(*models.IssueRecord) string) string {
	var won string
	found := false
	for _, src := range e.order {
		rec, configured := e.records[src]
		if rec == nil {
			if configured {
				e.putAll(f, src, nil, false)
			}
			continue
		}
		v := get(rec)
		e.putAll(f, src, v, v != "")
		if !found && v != "" {
			won = v
			e.win(f, src)
			found = true
		}
	}
	return won
}

func (e *issueEval) flt(f Field, get func(*models.IssueRecord) float64) float64 {
	var won float64
	found := false
	for _, src := range e.order {
		rec, configured := e.records[src]
		if rec == nil {
			if configured {
				e.putAll(f, src, nil, false)
			}
			continue
		}
		v := get(rec)
		e.putAll(f, src, v, v != 0)
		if !found && v != 0 {
			won = v
			e.win(f, src)
			found = true
		}
	}
	return won
}

func (e *issueEval) strs(f Field, get func(*models.IssueRecord) []string) []string {
	var won []string
	found := false
	for _, src := range e.order {
		rec, configured := e.records[src]
		if rec == nil {
			if configured {
				e.putAll(f, src, nil, false)
			}
			continue
		}
		v := get(rec)
		e.putAll(f, src, copyStrings(v), len(v) > 0)
		if !found && len(v) > 0 {
			won = copyStrings(v)
			e.win(f, src)
			found = true
		}
	}
	return won
}

func (e *issueEval) win(f Field, src models.Source) {
	e.merged.FieldSources[f] = src
	e.merged.ContributingSources[src] = true
}

func (e *issueEval) putAll(f Field, src models.Source, v any, nonEmpty bool) {
	if !e.collect {
		return
	}
	perSource := e.merged.AllFieldValues[f]
	if perSource == nil {
		perSource = make(map[models.Source]any)
		e.merged.AllFieldValues[f] = perSource
	}
	if nonEmpty {
		perSource[src] = v
	} else {
		perSource[src] = nil
	}
}
