package metadata

import "comichub/pkg/models"

// MergeOptions controls conflict resolution.
//
// PriorityOrder lists sources from most to least trusted; known sources
// missing from the list are appended in models.AllSources order so the walk
// stays deterministic. FieldOverrides pins individual fields to a specific
// source and is honored only by the WithAllValues variants, which have the
// raw per-source values needed to re-project.
type MergeOptions struct {
	PriorityOrder  []models.Source
	FieldOverrides map[Field]models.Source
}

// MergedSeries is the authoritative combination of several providers' series
// records. The embedded SeriesRecord holds the winning value per field;
// Source/SourceID identify the primary (first non-nil by priority) provider.
type MergedSeries struct {
	models.SeriesRecord

	// FieldSources records which provider supplied each non-empty field.
	// A field absent here had no data in any source.
	FieldSources map[Field]models.Source

	// ContributingSources is the set of providers that won at least one
	// field (plus the originating provider on a single-source merge).
	ContributingSources map[models.Source]bool

	// AllFieldValues holds every provider's raw value per field, nil where
	// a provider had nothing. Only populated by MergeSeriesWithAllValues.
	AllFieldValues map[Field]map[models.Source]any

	// FieldSourceOverrides records the sticky per-field pins that were
	// applied on top of the priority walk.
	FieldSourceOverrides map[Field]models.Source
}

// MergeSeries folds per-source records into one merged record with field
// provenance. Returns nil when every entry is nil.
func MergeSeries(records map[models.Source]*models.SeriesRecord, opts MergeOptions) *MergedSeries {
	return mergeSeries(records, opts, false)
}

// MergeSeriesWithAllValues is MergeSeries plus the full per-source value map
// (for UI source pickers) and application of opts.FieldOverrides.
func MergeSeriesWithAllValues(records map[models.Source]*models.SeriesRecord, opts MergeOptions) *MergedSeries {
	m := mergeSeries(records, opts, true)
	if m == nil || len(opts.FieldOverrides) == 0 {
		return m
	}
	return ApplySeriesOverrides(m, m.AllFieldValues, opts.FieldOverrides)
}

func mergeSeries(records map[models.Source]*models.SeriesRecord, opts MergeOptions, collect bool) *MergedSeries {
	order := expandOrder(opts.PriorityOrder)

	var primary *models.SeriesRecord
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

	m := &MergedSeries{
		FieldSources:        make(map[Field]models.Source),
		ContributingSources: make(map[models.Source]bool),
	}
	m.Source = primary.Source
	m.SourceID = primary.SourceID
	if collect {
		m.AllFieldValues = make(map[Field]map[models.Source]any)
	}

	e := &seriesEval{records: records, order: order, merged: m, collect: collect}

	m.Name = e.str(FieldName, func(r *models.SeriesRecord) string { return r.Name })
	m.Publisher = e.str(FieldPublisher, func(r *models.SeriesRecord) string { return r.Publisher })
	m.Imprint = e.str(FieldImprint, func(r *models.SeriesRecord) string { return r.Imprint })
	m.StartYear = e.num(FieldStartYear, func(r *models.SeriesRecord) int { return r.StartYear })
	m.EndYear = e.num(FieldEndYear, func(r *models.SeriesRecord) int { return r.EndYear })
	m.Status = e.str(FieldStatus, func(r *models.SeriesRecord) string { return r.Status })
	m.Description = e.str(FieldDescription, func(r *models.SeriesRecord) string { return r.Description })
	m.CoverURL = e.str(FieldCoverURL, func(r *models.SeriesRecord) string { return r.CoverURL })
	m.AgeRating = e.str(FieldAgeRating, func(r *models.SeriesRecord) string { return r.AgeRating })
	m.CountOfIssues = e.num(FieldCountOfIssues, func(r *models.SeriesRecord) int { return r.CountOfIssues })
	m.Rating = e.flt(FieldRating, func(r *models.SeriesRecord) float64 { return r.Rating })
	m.Web = e.str(FieldWeb, func(r *models.SeriesRecord) string { return r.Web })
	m.Aliases = e.strs(FieldAliases, func(r *models.SeriesRecord) []string { return r.Aliases })
	m.Creators = e.strs(FieldCreators, func(r *models.SeriesRecord) []string { return r.Creators })
	m.Genres = e.strs(FieldGenres, func(r *models.SeriesRecord) []string { return r.Genres })
	m.Characters = e.strs(FieldCharacters, func(r *models.SeriesRecord) []string { return r.Characters })
	m.Teams = e.strs(FieldTeams, func(r *models.SeriesRecord) []string { return r.Teams })
	m.Locations = e.strs(FieldLocations, func(r *models.SeriesRecord) []string { return r.Locations })

	// Single-source shortcut: the lone provider contributes even when every
	// one of its fields is empty.
	if nonNil == 1 {
		m.ContributingSources[primary.Source] = true
	}
	return m
}

// expandOrder appends any known source missing from priority, in canonical
// order, so every merge visits every configured provider exactly once.
func expandOrder(priority []models.Source) []models.Source {
	seen := make(map[models.Source]bool, len(priority))
	out := make([]models.Source, 0, len(models.AllSources))
	for _, src := range priority {
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	for _, src := range models.AllSources {
		if !seen[src] {
			out = append(out, src)
		}
	}
	return out
}

// seriesEval walks sources in priority order once per field, taking the
// first non-empty value and recording provenance as it goes.
type seriesEval struct {
	records map[models.Source]*models.SeriesRecord
	order   []models.Source
	merged  *MergedSeries
	collect bool
}

func (e *seriesEval) str(f Field, get func(*models.SeriesRecord) string) string {
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

func (e *seriesEval) num(f Field, get func(*models.SeriesRecord) int) int {
	var won int
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

func (e *seriesEval) flt(f Field, get func(*models.SeriesRecord) float64) float64 {
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

// strs follows the same first-non-empty rule as scalars: arrays are taken
// whole from the winning source, never concatenated across sources.
func (e *seriesEval) strs(f Field, get func(*models.SeriesRecord) []string) []string {
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

func (e *seriesEval) win(f Field, src models.Source) {
	e.merged.FieldSources[f] = src
	e.merged.ContributingSources[src] = true
}

func (e *seriesEval) putAll(f Field, src models.Source, v any, nonEmpty bool) {
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
