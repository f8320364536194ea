package sync

import "time"

// Event types pushed to live subscribers.
const (
	EventFilesChanged    = "files.changed"
	EventSeriesChanged   = "series.changed"
	EventMetadataChanged = "metadata.changed"
)

// Metadata change scopes.
const (
	ScopeFile   = "file"
	ScopeSeries = "series"
	ScopeBatch  = "batch"
)

// MetadataEvent tells subscribers which entities were re-derived so readers
// can drop stale caches and re-render.
type MetadataEvent struct {
	Type      string    `json:"type"`
	Scope     string    `json:"scope,omitempty"`
	FileIDs   []string  `json:"file_ids,omitempty"`
	SeriesIDs []string  `json:"series_ids,omitempty"`
	At        time.Time `json:"at"`
}
