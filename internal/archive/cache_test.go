package archive_test

import (
	"archive/zip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"comichub/internal/archive"
	"comichub/internal/library"
	"comichub/internal/testsupport"
	"comichub/pkg/models"
)

func writeArchive(t *testing.T, dir, name, comicInfo string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	if comicInfo != "" {
		w, err := zw.Create("ComicInfo.xml")
		if err != nil {
			t.Fatalf("add ComicInfo.xml: %v", err)
		}
		if _, err := w.Write([]byte(comicInfo)); err != nil {
			t.Fatalf("write ComicInfo.xml: %v", err)
		}
	}
	if w, err := zw.Create("page001.jpg"); err == nil {
		_, _ = w.Write([]byte("not really a jpg"))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return path
}

const sampleComicInfo = `<?xml version="1.0"?>
<ComicInfo>
  <Series> Saga </Series>
  <Number>12</Number>
  <Title>Chapter Twelve</Title>
  <Year>2013</Year>
  <Publisher>Image Comics</Publisher>
  <Genre>Science Fiction, Fantasy</Genre>
  <Writer>Brian K. Vaughan</Writer>
  <Penciller>Fiona Staples</Penciller>
  <Characters>Alana, Marko</Characters>
  <Web>https://example.com/saga/12</Web>
</ComicInfo>`

func TestReadComicInfo(t *testing.T) {
	path := writeArchive(t, t.TempDir(), "saga-012.cbz", sampleComicInfo)

	md, err := archive.ReadComicInfo(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if md.SeriesName != "Saga" || md.Number != "12" || md.StartYear != 2013 {
		t.Fatalf("metadata = %+v", md)
	}
	if !reflect.DeepEqual(md.Genres, []string{"Science Fiction", "Fantasy"}) {
		t.Fatalf("genres = %v", md.Genres)
	}
	if !reflect.DeepEqual(md.Creators, []string{"Brian K. Vaughan", "Fiona Staples"}) {
		t.Fatalf("creators = %v", md.Creators)
	}
	if !reflect.DeepEqual(md.Characters, []string{"Alana", "Marko"}) {
		t.Fatalf("characters = %v", md.Characters)
	}
}

func TestReadComicInfoMissingEntry(t *testing.T) {
	path := writeArchive(t, t.TempDir(), "bare.cbz", "")

	if _, err := archive.ReadComicInfo(path); err == nil {
		t.Fatal("archive without ComicInfo.xml must error")
	}
}

func TestReadComicInfoCaseInsensitiveEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "odd.cbz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("comicinfo.XML")
	_, _ = w.Write([]byte(`<ComicInfo><Series>Bone</Series></ComicInfo>`))
	_ = zw.Close()
	_ = f.Close()

	md, err := archive.ReadComicInfo(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if md.SeriesName != "Bone" {
		t.Fatalf("metadata = %+v", md)
	}
}

func TestCacheRefreshFromArchive(t *testing.T) {
	db := testsupport.OpenDB(t)
	ctx := context.Background()
	files := library.NewFileRepo(db)
	cache := archive.NewCache(files, nil)

	path := writeArchive(t, t.TempDir(), "saga-012.cbz", sampleComicInfo)
	testsupport.InsertFile(t, db, models.File{ID: "f-1", Path: path})

	if err := cache.RefreshFromArchive(ctx, "f-1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	file, err := files.GetByID(ctx, "f-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if file.Metadata == nil || file.Metadata.SeriesName != "Saga" {
		t.Fatalf("cached metadata = %+v", file.Metadata)
	}
	if file.Inherited {
		t.Fatal("an archive refresh replaces inherited metadata with the archive's own")
	}
}

func TestCacheRefreshUnreadableArchive(t *testing.T) {
	db := testsupport.OpenDB(t)
	files := library.NewFileRepo(db)
	cache := archive.NewCache(files, nil)

	testsupport.InsertFile(t, db, models.File{
		ID:   "f-1",
		Path: filepath.Join(t.TempDir(), "gone.cbz"),
	})

	if err := cache.RefreshFromArchive(context.Background(), "f-1"); err == nil {
		t.Fatal("missing archive must error")
	}
}

func TestWriteFileMetadataSidecar(t *testing.T) {
	db := testsupport.OpenDB(t)
	ctx := context.Background()
	files := library.NewFileRepo(db)
	cache := archive.NewCache(files, nil)

	path := filepath.Join(t.TempDir(), "batman-001.cbz")
	if err := os.WriteFile(path, []byte("zip bytes"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	testsupport.InsertFile(t, db, models.File{ID: "f-1", Path: path})

	md := &models.FileMetadata{SeriesName: "Batman", Number: "1"}
	if err := cache.WriteFileMetadata(ctx, "f-1", md); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := files.GetByID(ctx, "f-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if file.Metadata == nil || file.Metadata.SeriesName != "Batman" {
		t.Fatalf("cached metadata = %+v", file.Metadata)
	}

	b, err := os.ReadFile(path + ".metadata.json")
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	var got models.FileMetadata
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("parse sidecar: %v", err)
	}
	if got.SeriesName != "Batman" || got.Number != "1" {
		t.Fatalf("sidecar = %+v", got)
	}
}
