package metadata

import (
	"testing"

	"comichub/pkg/models"
)

func TestMergeSeriesPriorityResolution(t *testing.T) {
	records := map[models.Source]*models.SeriesRecord{
		models.SourceComicVine: {
			Source:    models.SourceComicVine,
			SourceID:  "cv-1",
			Name:      "Batman",
			Publisher: "DC Comics",
			// description intentionally empty: metron should win it
		},
		models.SourceMetron: {
			Source:      models.SourceMetron,
			SourceID:    "m-1",
			Name:        "Batman",
			Publisher:   "DC",
			Description: "Dark Knight stories",
			Genres:      []string{"Superhero"},
		},
	}

	merged := MergeSeries(records, MergeOptions{
		PriorityOrder: []models.Source{models.SourceComicVine, models.SourceMetron},
	})
	if merged == nil {
		t.Fatal("expected a merged record")
	}

	if merged.Publisher != "DC Comics" {
		t.Fatalf("publisher = %q, want comicvine's %q", merged.Publisher, "DC Comics")
	}
	if merged.FieldSources[FieldPublisher] != models.SourceComicVine {
		t.Fatalf("publisher provenance = %s, want comicvine", merged.FieldSources[FieldPublisher])
	}
	if merged.Description != "Dark Knight stories" {
		t.Fatalf("description = %q, want metron's value", merged.Description)
	}
	if merged.FieldSources[FieldDescription] != models.SourceMetron {
		t.Fatalf("description provenance = %s, want metron", merged.FieldSources[FieldDescription])
	}

	// Arrays follow the same first-non-empty rule.
	if len(merged.Genres) != 1 || merged.Genres[0] != "Superhero" {
		t.Fatalf("genres = %v, want metron's", merged.Genres)
	}
	if merged.FieldSources[FieldGenres] != models.SourceMetron {
		t.Fatalf("genres provenance = %s, want metron", merged.FieldSources[FieldGenres])
	}

	if !merged.ContributingSources[models.SourceComicVine] || !merged.ContributingSources[models.SourceMetron] {
		t.Fatalf("contributing sources = %v, want both", merged.ContributingSources)
	}
}

func TestMergeSeriesPriorityOrderFlipped(t *testing.T) {
	records := map[models.Source]*models.SeriesRecord{
		models.SourceComicVine: {Source: models.SourceComicVine, Publisher: "DC Comics"},
		models.SourceMetron:    {Source: models.SourceMetron, Publisher: "DC"},
	}

	merged := MergeSeries(records, MergeOptions{
		PriorityOrder: []models.Source{models.SourceMetron, models.SourceComicVine},
	})
	if merged.Publisher != "DC" {
		t.Fatalf("publisher = %q, want metron's under flipped priority", merged.Publisher)
	}
}

func TestMergeSeriesSingleSourceShortcut(t *testing.T) {
	records := map[models.Source]*models.SeriesRecord{
		models.SourceComicVine: nil,
		models.SourceGCD: {
			Source:   models.SourceGCD,
			SourceID: "gcd-9",
			Name:     "Hellboy",
		},
	}

	merged := MergeSeries(records, MergeOptions{})
	if merged == nil {
		t.Fatal("expected a merged record")
	}
	if merged.Name != "Hellboy" || merged.SourceID != "gcd-9" {
		t.Fatalf("unexpected merge: %+v", merged.SeriesRecord)
	}
	if len(merged.ContributingSources) != 1 || !merged.ContributingSources[models.SourceGCD] {
		t.Fatalf("contributing sources = %v, want only gcd", merged.ContributingSources)
	}
}

func TestMergeSeriesAllNil(t *testing.T) {
	records := map[models.Source]*models.SeriesRecord{
		models.SourceComicVine: nil,
		models.SourceMetron:    nil,
	}
	if merged := MergeSeries(records, MergeOptions{}); merged != nil {
		t.Fatalf("expected nil merge, got %+v", merged)
	}
}

func TestMergeSeriesEmptyValuesFallThrough(t *testing.T) {
	records := map[models.Source]*models.SeriesRecord{
		models.SourceComicVine: {
			Source:  models.SourceComicVine,
			Name:    "Saga",
			Genres:  []string{}, // empty array must not win
			EndYear: 0,          // zero must not win
		},
		models.SourceAniList: {
			Source:  models.SourceAniList,
			Genres:  []string{"Sci-Fi"},
			EndYear: 2018,
		},
	}

	merged := MergeSeries(records, MergeOptions{
		PriorityOrder: []models.Source{models.SourceComicVine, models.SourceAniList},
	})
	if merged.FieldSources[FieldGenres] != models.SourceAniList {
		t.Fatalf("empty array merged in: provenance = %s", merged.FieldSources[FieldGenres])
	}
	if merged.EndYear != 2018 {
		t.Fatalf("end year = %d, want anilist's 2018", merged.EndYear)
	}
	if _, ok := merged.FieldSources[FieldDescription]; ok {
		t.Fatal("field with no data anywhere must be absent from provenance")
	}
}

func TestMergeSeriesWithAllValues(t *testing.T) {
	records := map[models.Source]*models.SeriesRecord{
		models.SourceComicVine: {Source: models.SourceComicVine, Publisher: "DC Comics"},
		models.SourceMetron:    {Source: models.SourceMetron, Publisher: "DC"},
		models.SourceGCD:       nil,
	}

	merged := MergeSeriesWithAllValues(records, MergeOptions{
		PriorityOrder: []models.Source{models.SourceComicVine, models.SourceMetron},
	})

	perSource := merged.AllFieldValues[FieldPublisher]
	if perSource[models.SourceComicVine] != "DC Comics" || perSource[models.SourceMetron] != "DC" {
		t.Fatalf("all-values map incomplete: %v", perSource)
	}
	if v, ok := perSource[models.SourceGCD]; !ok || v != nil {
		t.Fatalf("nil source must appear with a nil value, got %v (present %v)", v, ok)
	}
}

func TestMergeSeriesOverridePrecedence(t *testing.T) {
	records := map[models.Source]*models.SeriesRecord{
		models.SourceComicVine: {Source: models.SourceComicVine, Publisher: "DC Comics"},
		models.SourceMetron:    {Source: models.SourceMetron, Publisher: "DC"},
	}

	merged := MergeSeriesWithAllValues(records, MergeOptions{
		PriorityOrder:  []models.Source{models.SourceComicVine, models.SourceMetron},
		FieldOverrides: map[Field]models.Source{FieldPublisher: models.SourceMetron},
	})

	if merged.Publisher != "DC" {
		t.Fatalf("publisher = %q, want override winner %q", merged.Publisher, "DC")
	}
	if merged.FieldSources[FieldPublisher] != models.SourceMetron {
		t.Fatalf("publisher provenance = %s, want metron", merged.FieldSources[FieldPublisher])
	}
	if merged.FieldSourceOverrides[FieldPublisher] != models.SourceMetron {
		t.Fatal("override must be recorded as sticky")
	}
}

func TestMergeSeriesOverridePointingAtEmptyIsIgnored(t *testing.T) {
	records := map[models.Source]*models.SeriesRecord{
		models.SourceComicVine: {Source: models.SourceComicVine, Publisher: "DC Comics"},
		models.SourceMetron:    {Source: models.SourceMetron}, // no publisher
	}

	merged := MergeSeriesWithAllValues(records, MergeOptions{
		PriorityOrder:  []models.Source{models.SourceComicVine, models.SourceMetron},
		FieldOverrides: map[Field]models.Source{FieldPublisher: models.SourceMetron},
	})

	if merged.Publisher != "DC Comics" {
		t.Fatalf("publisher = %q, original winner must be kept", merged.Publisher)
	}
	if merged.FieldSources[FieldPublisher] != models.SourceComicVine {
		t.Fatalf("publisher provenance = %s, want comicvine", merged.FieldSources[FieldPublisher])
	}
	if _, ok := merged.FieldSourceOverrides[FieldPublisher]; ok {
		t.Fatal("empty-valued override must not be recorded")
	}
}

func TestApplySeriesOverridesDoesNotMutateInput(t *testing.T) {
	records := map[models.Source]*models.SeriesRecord{
		models.SourceComicVine: {Source: models.SourceComicVine, Publisher: "DC Comics"},
		models.SourceMetron:    {Source: models.SourceMetron, Publisher: "DC"},
	}
	merged := MergeSeriesWithAllValues(records, MergeOptions{
		PriorityOrder: []models.Source{models.SourceComicVine, models.SourceMetron},
	})

	out := ApplySeriesOverrides(merged, merged.AllFieldValues, map[Field]models.Source{
		FieldPublisher: models.SourceMetron,
	})

	if merged.Publisher != "DC Comics" || merged.FieldSources[FieldPublisher] != models.SourceComicVine {
		t.Fatal("ApplySeriesOverrides mutated its input")
	}
	if out.Publisher != "DC" || out.FieldSources[FieldPublisher] != models.SourceMetron {
		t.Fatalf("re-projection wrong: %q from %s", out.Publisher, out.FieldSources[FieldPublisher])
	}
}

func TestMergeIssueSeriesIdentityFromPrimaryOnly(t *testing.T) {
	records := map[models.Source]*models.IssueRecord{
		models.SourceComicVine: {
			Source:     models.SourceComicVine,
			SeriesID:   "cv-series-1",
			SeriesName: "Batman",
			// no title: metron should win title, but never series identity
		},
		models.SourceMetron: {
			Source:     models.SourceMetron,
			SeriesID:   "m-series-7",
			SeriesName: "Batman (2016)",
			Title:      "I Am Gotham",
		},
	}

	merged := MergeIssue(records, MergeOptions{
		PriorityOrder: []models.Source{models.SourceComicVine, models.SourceMetron},
	})
	if merged.SeriesID != "cv-series-1" || merged.SeriesName != "Batman" {
		t.Fatalf("series identity = %s/%q, must come whole from primary", merged.SeriesID, merged.SeriesName)
	}
	if merged.Title != "I Am Gotham" {
		t.Fatalf("title = %q, want metron's", merged.Title)
	}
}

func TestMergeIssueSeriesIdentityFollowsFirstNonNil(t *testing.T) {
	records := map[models.Source]*models.IssueRecord{
		models.SourceComicVine: nil,
		models.SourceMetron: {
			Source:     models.SourceMetron,
			SeriesID:   "m-series-7",
			SeriesName: "Batman (2016)",
		},
	}

	merged := MergeIssue(records, MergeOptions{
		PriorityOrder: []models.Source{models.SourceComicVine, models.SourceMetron},
	})
	if merged.SeriesID != "m-series-7" {
		t.Fatalf("series id = %s, want first non-nil source's", merged.SeriesID)
	}
}
