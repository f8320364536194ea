package models

// SeriesRecord is one provider's view of a comic series, already normalized
// by the source adapter. Zero values ("" / 0 / nil slice) mean the provider
// had no data for that field. Records are immutable once fetched.
type SeriesRecord struct {
	Source   Source `json:"source"`
	SourceID string `json:"source_id"`

	Name          string   `json:"name,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	Imprint       string   `json:"imprint,omitempty"`
	StartYear     int      `json:"start_year,omitempty"`
	EndYear       int      `json:"end_year,omitempty"`
	Status        string   `json:"status,omitempty"`
	Description   string   `json:"description,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
	AgeRating     string   `json:"age_rating,omitempty"`
	CountOfIssues int      `json:"count_of_issues,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	Web           string   `json:"web,omitempty"`
	Aliases       []string `json:"aliases,omitempty"`
	Creators      []string `json:"creators,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Characters    []string `json:"characters,omitempty"`
	Teams         []string `json:"teams,omitempty"`
	Locations     []string `json:"locations,omitempty"`
}

// IssueRecord is one provider's view of a single issue. SeriesID and
// SeriesName identify which series the provider filed the issue under; they
// are never merged field-by-field across providers.
type IssueRecord struct {
	Source   Source `json:"source"`
	SourceID string `json:"source_id"`

	SeriesID   string `json:"series_id,omitempty"`
	SeriesName string `json:"series_name,omitempty"`

	Number     string   `json:"number,omitempty"`
	Title      string   `json:"title,omitempty"`
	CoverDate  string   `json:"cover_date,omitempty"`
	StoreDate  string   `json:"store_date,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	CoverURL   string   `json:"cover_url,omitempty"`
	Rating     float64  `json:"rating,omitempty"`
	Web        string   `json:"web,omitempty"`
	Creators   []string `json:"creators,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	Characters []string `json:"characters,omitempty"`
	Teams      []string `json:"teams,omitempty"`
	Locations  []string `json:"locations,omitempty"`
}
