package metadata

import "comichub/pkg/models"

// ApplySeriesOverrides re-projects a merge under per-field source pins
// without redoing the full merge: for each (field, source) pair whose raw
// value in allValues is non-empty, that value replaces the priority winner.
// Pins pointing at empty values are ignored and the original winner stays.
//
// The input is never mutated; callers get a fresh MergedSeries.
func ApplySeriesOverrides(m *MergedSeries, allValues map[Field]map[models.Source]any, overrides map[Field]models.Source) *MergedSeries {
	out := cloneSeries(m)
	for f, src := range overrides {
		set, ok := seriesSetters[f]
		if !ok {
			continue
		}
		v := allValues[f][src]
		if emptyValue(v) {
			continue
		}
		set(out, v)
		out.FieldSources[f] = src
		if out.FieldSourceOverrides == nil {
			out.FieldSourceOverrides = make(map[Field]models.Source)
		}
		out.FieldSourceOverrides[f] = src
	}
	out.ContributingSources = contributingFrom(out.FieldSources, out.ContributingSources)
	return out
}

// ApplyIssueOverrides is the issue-record analogue. Series identity fields
// have no setters, so a pin on series_id/series_name is a no-op: an issue's
// series must stay whole from its primary source.
func ApplyIssueOverrides(m *MergedIssue, allValues map[Field]map[models.Source]any, overrides map[Field]models.Source) *MergedIssue {
	out := cloneIssue(m)
	for f, src := range overrides {
		set, ok := issueSetters[f]
		if !ok {
			continue
		}
		v := allValues[f][src]
		if emptyValue(v) {
			continue
		}
		set(out, v)
		out.FieldSources[f] = src
		if out.FieldSourceOverrides == nil {
			out.FieldSourceOverrides = make(map[Field]models.Source)
		}
		out.FieldSourceOverrides[f] = src
	}
	out.ContributingSources = contributingFrom(out.FieldSources, out.ContributingSources)
	return out
}

// contributingFrom recomputes the contributing set from field provenance,
// keeping any source that was already present with zero fields (the
// single-source shortcut case).
func contributingFrom(fieldSources map[Field]models.Source, prior map[models.Source]bool) map[models.Source]bool {
	out := make(map[models.Source]bool, len(prior))
	for _, src := range fieldSources {
		out[src] = true
	}
	if len(fieldSources) == 0 {
		for src := range prior {
			out[src] = true
		}
	}
	return out
}

func cloneSeries(m *MergedSeries) *MergedSeries {
	out := &MergedSeries{
		SeriesRecord:        m.SeriesRecord,
		FieldSources:        make(map[Field]models.Source, len(m.FieldSources)),
		ContributingSources: make(map[models.Source]bool, len(m.ContributingSources)),
		AllFieldValues:      m.AllFieldValues,
	}
	out.Aliases = copyStrings(m.Aliases)
	out.Creators = copyStrings(m.Creators)
	out.Genres = copyStrings(m.Genres)
	out.Characters = copyStrings(m.Characters)
	out.Teams = copyStrings(m.Teams)
	out.Locations = copyStrings(m.Locations)
	for f, src := range m.FieldSources {
		out.FieldSources[f] = src
	}
	for src := range m.ContributingSources {
		out.ContributingSources[src] = true
	}
	if len(m.FieldSourceOverrides) > 0 {
		out.FieldSourceOverrides = make(map[Field]models.Source, len(m.FieldSourceOverrides))
		for f, src := range m.FieldSourceOverrides {
			out.FieldSourceOverrides[f] = src
		}
	}
	return out
}

func cloneIssue(m *MergedIssue) *MergedIssue {
	out := &MergedIssue{
		IssueRecord:         m.IssueRecord,
		FieldSources:        make(map[Field]models.Source, len(m.FieldSources)),
		ContributingSources: make(map[models.Source]bool, len(m.ContributingSources)),
		AllFieldValues:      m.AllFieldValues,
	}
	out.Creators = copyStrings(m.Creators)
	out.Genres = copyStrings(m.Genres)
	out.Characters = copyStrings(m.Characters)
	out.Teams = copyStrings(m.Teams)
	out.Locations = copyStrings(m.Locations)
	for f, src := range m.FieldSources {
		out.FieldSources[f] = src
	}
	for src := range m.ContributingSources {
		out.ContributingSources[src] = true
	}
	if len(m.FieldSourceOverrides) > 0 {
		out.FieldSourceOverrides = make(map[Field]models.Source, len(m.FieldSourceOverrides))
		for f, src := range m.FieldSourceOverrides {
			out.FieldSourceOverrides[f] = src
		}
	}
	return out
}

var seriesSetters = map[Field]func(*MergedSeries, any){
	FieldName:          func(m *MergedSeries, v any) { m.Name, _ = v.(string) },
	FieldPublisher:     func(m *MergedSeries, v any) { m.Publisher, _ = v.(string) },
	FieldImprint:       func(m *MergedSeries, v any) { m.Imprint, _ = v.(string) },
	FieldStartYear:     func(m *MergedSeries, v any) { m.StartYear, _ = v.(int) },
	FieldEndYear:       func(m *MergedSeries, v any) { m.EndYear, _ = v.(int) },
	FieldStatus:        func(m *MergedSeries, v any) { m.Status, _ = v.(string) },
	FieldDescription:   func(m *MergedSeries, v any) { m.Description, _ = v.(string) },
	FieldCoverURL:      func(m *MergedSeries, v any) { m.CoverURL, _ = v.(string) },
	FieldAgeRating:     func(m *MergedSeries, v any) { m.AgeRating, _ = v.(string) },
	FieldCountOfIssues: func(m *MergedSeries, v any) { m.CountOfIssues, _ = v.(int) },
	FieldRating:        func(m *MergedSeries, v any) { m.Rating, _ = v.(float64) },
	FieldWeb:           func(m *MergedSeries, v any) { m.Web, _ = v.(string) },
	FieldAliases:       func(m *MergedSeries, v any) { s, _ := v.([]string); m.Aliases = copyStrings(s) },
	FieldCreators:      func(m *MergedSeries, v any) { s, _ := v.([]string); m.Creators = copyStrings(s) },
	FieldGenres:        func(m *MergedSeries, v any) { s, _ := v.([]string); m.Genres = copyStrings(s) },
	FieldCharacters:    func(m *MergedSeries, v any) { s, _ := v.([]string); m.Characters = copyStrings(s) },
	FieldTeams:         func(m *MergedSeries, v any) { s, _ := v.([]string); m.Teams = copyStrings(s) },
	FieldLocations:     func(m *MergedSeries, v any) { s, _ := v.([]string); m.Locations = copyStrings(s) },
}

var issueSetters = map[Field]func(*MergedIssue, any){
	FieldNumber:     func(m *MergedIssue, v any) { m.Number, _ = v.(string) },
	FieldTitle:      func(m *MergedIssue, v any) { m.Title, _ = v.(string) },
	FieldCoverDate:  func(m *MergedIssue, v any) { m.CoverDate, _ = v.(string) },
	FieldStoreDate:  func(m *MergedIssue, v any) { m.StoreDate, _ = v.(string) },
	FieldSummary:    func(m *MergedIssue, v any) { m.Summary, _ = v.(string) },
	FieldCoverURL:   func(m *MergedIssue, v any) { m.CoverURL, _ = v.(string) },
	FieldRating:     func(m *MergedIssue, v any) { m.Rating, _ = v.(float64) },
	FieldWeb:        func(m *MergedIssue, v any) { m.Web, _ = v.(string) },
	FieldCreators:   func(m *MergedIssue, v any) { s, _ := v.([]string); m.Creators = copyStrings(s) },
	FieldGenres:     func(m *MergedIssue, v any) { s, _ := v.([]string); m.Genres = copyStrings(s) },
	FieldCharacters: func(m *MergedIssue, v any) { s, _ := v.([]string); m.Characters = copyStrings(s) },
	FieldTeams:      func(m *MergedIssue, v any) { s, _ := v.([]string); m.Teams = copyStrings(s) },
	FieldLocations:  func(m *MergedIssue, v any) { s, _ := v.([]string); m.Locations = copyStrings(s) },
}
