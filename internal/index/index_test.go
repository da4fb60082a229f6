package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ivkram/geokb/internal/apperr"
	"github.com/ivkram/geokb/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "geokb-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mention(text, target string) models.Mention {
	return models.Mention{Text: text, Target: target}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:      "norway.md",
		Title:     "Norway",
		Topic:     "Geography",
		Checksum:  "abc123",
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, "Driving side is right.", []models.Mention{mention("Sweden", "sweden.md")}); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("norway.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", UpdatedAt: time.Now()}, "body", []models.Mention{mention("B", "b.md")})
	_ = db.UpsertNote(NoteRow{Path: "c.md", Checksum: "2", UpdatedAt: time.Now()}, "body", []models.Mention{mention("see b", "b.md")})

	bl, err := db.Backlinks("b.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("expected 2 backlinks, got %d: %v", len(bl), bl)
	}
	if bl[0] != "a.md" || bl[1] != "c.md" {
		t.Errorf("backlinks unsorted: %v", bl)
	}
}

func TestBacklinks_DistinctSources(t *testing.T) {
	db := testDB(t)
	// Two mentions of the same target from one note, distinct texts.
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", UpdatedAt: time.Now()}, "body", []models.Mention{
		mention("Norway", "norway.md"),
		mention("the kingdom", "norway.md"),
	})
	bl, err := db.Backlinks("norway.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 1 {
		t.Errorf("expected 1 distinct source, got %v", bl)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "del.md", Checksum: "x", UpdatedAt: time.Now()}, "body", []models.Mention{mention("t", "target.md")})

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("target.md")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "up.md", Title: "Old", Checksum: "1", UpdatedAt: now}, "old body", []models.Mention{mention("x", "x.md")})
	_ = db.UpsertNote(NoteRow{Path: "up.md", Title: "New", Checksum: "2", UpdatedAt: now}, "new body", []models.Mention{mention("y", "y.md")})

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	bl, _ := db.Backlinks("x.md")
	if len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	bl, _ = db.Backlinks("y.md")
	if len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestGetNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "n.md", Title: "N", Topic: "Geography", Checksum: "1", UpdatedAt: time.Now()}, "", nil)

	n, err := db.GetNote("n.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n.Title != "N" || n.Topic != "Geography" {
		t.Errorf("row = %+v", n)
	}

	_, err = db.GetNote("missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListNotes(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "b.md", Title: "B", Topic: "Geography", Checksum: "1", UpdatedAt: now}, "", nil)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "A", Topic: "Geography", Checksum: "2", UpdatedAt: now}, "", nil)
	_ = db.UpsertNote(NoteRow{Path: "h.md", Title: "H", Topic: "History", Checksum: "3", UpdatedAt: now}, "", nil)

	rows, total, err := db.ListNotes(10, 0, "Geography", "path")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("total = %d, len = %d, want 2/2", total, len(rows))
	}
	if rows[0].Path != "a.md" || rows[1].Path != "b.md" {
		t.Errorf("rows out of order: %v, %v", rows[0].Path, rows[1].Path)
	}

	rows, total, err = db.ListNotes(10, 0, "", "")
	if err != nil {
		t.Fatalf("ListNotes all: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Errorf("total = %d, len = %d, want 3/3", total, len(rows))
	}
}

func TestListNotes_RejectsUnknownSort(t *testing.T) {
	db := testDB(t)
	if _, _, err := db.ListNotes(10, 0, "", "checksum; DROP TABLE notes"); err == nil {
		t.Fatal("unknown sort column should be rejected")
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", UpdatedAt: time.Now()}, "", nil)
	_ = db.UpsertNote(NoteRow{Path: "b.md", Checksum: "2", UpdatedAt: time.Now()}, "", nil)

	cs, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(cs) != 2 || cs["a.md"] != "1" || cs["b.md"] != "2" {
		t.Errorf("checksums = %v", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "s.md", Title: "Search Me", Checksum: "1", UpdatedAt: time.Now()}, "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}
