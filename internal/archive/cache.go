package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"comichub/internal/library"
	"comichub/pkg/models"
)

// Cache keeps the files table's flattened metadata column in sync with what
// the archives on disk actually say.
type Cache struct {
	Files  *library.FileRepo
	Logger *log.Logger
}

func NewCache(files *library.FileRepo, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{Files: files, Logger: logger}
}

// RefreshFromArchive re-reads a file's archive and replaces its cached
// metadata. The error is load-bearing for callers: everything downstream of
// an invalidation depends on this cache being fresh.
func (c *Cache) RefreshFromArchive(ctx context.Context, fileID string) error {
	file, err := c.Files.GetByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("load file: %w", err)
	}
	if file == nil {
		return fmt.Errorf("file %s not found", fileID)
	}

	md, err := ReadComicInfo(file.Path)
	if err != nil {
		return err
	}
	if err := c.Files.UpdateMetadata(ctx, fileID, md, false); err != nil {
		return err
	}
	c.Logger.Printf("[archive] refreshed metadata for %s from %s", fileID, file.Path)
	return nil
}

// CacheMetadata stores caller-supplied metadata directly, skipping the
// archive read.
func (c *Cache) CacheMetadata(ctx context.Context, fileID string, md *models.FileMetadata) error {
	if md == nil {
		return fmt.Errorf("no metadata supplied for %s", fileID)
	}
	return c.Files.UpdateMetadata(ctx, fileID, md, false)
}

// WriteFileMetadata persists metadata both to the cache and to a JSON
// sidecar next to the archive, for the metadata-follows-link repair path.
func (c *Cache) WriteFileMetadata(ctx context.Context, fileID string, md *models.FileMetadata) error {
	file, err := c.Files.GetByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("load file: %w", err)
	}
	if file == nil {
		return fmt.Errorf("file %s not found", fileID)
	}

	if err := c.Files.UpdateMetadata(ctx, fileID, md, file.Inherited); err != nil {
		return err
	}

	b, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	sidecar := file.Path + ".metadata.json"
	if err := os.WriteFile(sidecar, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", sidecar, err)
	}
	return nil
}
