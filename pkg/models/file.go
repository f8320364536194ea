package models

import "time"

// FileMetadata is the flattened metadata cached on a file row. It is the
// persisted projection of a merge result (or of the archive's own ComicInfo),
// stored as JSON in the files table.
type FileMetadata struct {
	SeriesName string   `json:"series_name,omitempty"`
	Publisher  string   `json:"publisher,omitempty"`
	StartYear  int      `json:"start_year,omitempty"`
	Number     string   `json:"number,omitempty"`
	Title      string   `json:"title,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Web        string   `json:"web,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	Creators   []string `json:"creators,omitempty"`
	Characters []string `json:"characters,omitempty"`
}

// File is a library file row. SeriesID is empty when the file is unlinked.
// Version increments on every link write and guards read-then-write linkage
// updates against concurrent invalidations.
type File struct {
	ID        string        `json:"id"`
	Path      string        `json:"path"`
	SeriesID  string        `json:"series_id,omitempty"`
	Metadata  *FileMetadata `json:"metadata,omitempty"`
	Inherited bool          `json:"inherited,omitempty"`
	Version   int64         `json:"version"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Series is a series row.
type Series struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Publisher  string    `json:"publisher,omitempty"`
	StartYear  int       `json:"start_year,omitempty"`
	Status     string    `json:"status,omitempty"`
	FolderPath string    `json:"folder_path,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
