package archive

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"

	"comichub/pkg/models"
)

// comicInfo mirrors the ComicInfo.xml schema shipped inside cbz archives.
// Only the fields the library cares about are mapped.
type comicInfo struct {
	XMLName    xml.Name `xml:"ComicInfo"`
	Series     string   `xml:"Series"`
	Number     string   `xml:"Number"`
	Title      string   `xml:"Title"`
	Summary    string   `xml:"Summary"`
	Year       int      `xml:"Year"`
	Publisher  string   `xml:"Publisher"`
	Genre      string   `xml:"Genre"`
	Writer     string   `xml:"Writer"`
	Penciller  string   `xml:"Penciller"`
	Characters string   `xml:"Characters"`
	Web        string   `xml:"Web"`
}

// ReadComicInfo extracts the ComicInfo.xml entry from a cbz/zip archive and
// maps it into FileMetadata. A missing entry is an error: callers decide
// whether an unreadable archive fails the whole operation.
func ReadComicInfo(path string) (*models.FileMetadata, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if !strings.EqualFold(entry.Name, "ComicInfo.xml") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("open ComicInfo.xml: %w", err)
		}
		defer rc.Close()

		var info comicInfo
		if err := xml.NewDecoder(rc).Decode(&info); err != nil {
			return nil, fmt.Errorf("parse ComicInfo.xml: %w", err)
		}
		return info.toMetadata(), nil
	}
	return nil, fmt.Errorf("archive %s has no ComicInfo.xml", path)
}

func (c comicInfo) toMetadata() *models.FileMetadata {
	md := &models.FileMetadata{
		SeriesName: strings.TrimSpace(c.Series),
		Publisher:  strings.TrimSpace(c.Publisher),
		StartYear:  c.Year,
		Number:     strings.TrimSpace(c.Number),
		Title:      strings.TrimSpace(c.Title),
		Summary:    strings.TrimSpace(c.Summary),
		Web:        strings.TrimSpace(c.Web),
		Genres:     splitList(c.Genre),
		Characters: splitList(c.Characters),
	}
	md.Creators = append(md.Creators, splitList(c.Writer)...)
	md.Creators = append(md.Creators, splitList(c.Penciller)...)
	return md
}

// splitList splits ComicInfo's comma-separated multi-value fields.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
