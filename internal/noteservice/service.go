// Package noteservice coordinates vault storage, the search index, and the
// link graph behind one API surface.
package noteservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/ivkram/geokb/internal/apperr"
	"github.com/ivkram/geokb/internal/checksum"
	"github.com/ivkram/geokb/internal/index"
	"github.com/ivkram/geokb/internal/linkgraph"
	"github.com/ivkram/geokb/internal/models"
	"github.com/ivkram/geokb/internal/parser"
	"github.com/ivkram/geokb/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string            `json:"path"`
	Title       string            `json:"title"`
	Topic       string            `json:"topic,omitempty"`
	Content     string            `json:"content"`
	Checksum    string            `json:"checksum"`
	Frontmatter map[string]string `json:"frontmatter,omitempty"`
	Mentions    []models.Mention  `json:"mentions"`
	Backlinks   []string          `json:"backlinks"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Topic     string    `json:"topic,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store   storage.Provider
	db      *index.DB
	builder *linkgraph.Builder
}

// NewService creates a new note service.
func NewService(store storage.Provider, db *index.DB, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		db:      db,
		builder: linkgraph.NewBuilder(store, logger),
	}
}

// GetNote reads a note from storage, parses it, and enriches it with backlinks.
func (s *Service) GetNote(_ context.Context, notePath string) (*NoteDetail, error) {
	data, err := s.store.Read(notePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildNoteDetail(notePath, data)
}

// CreateNote writes a new note and indexes it.
func (s *Service) CreateNote(_ context.Context, notePath string, content []byte) (*NoteDetail, error) {
	if _, err := s.store.Read(notePath); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(notePath, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(notePath, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(notePath, content)
}

// UpdateNote writes updated content with optimistic concurrency.
func (s *Service) UpdateNote(_ context.Context, notePath string, content []byte, ifMatch string) (*NoteDetail, error) {
	existing, err := s.store.Read(notePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(notePath, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(notePath, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(notePath, content)
}

// DeleteNote removes a note from storage and index.
func (s *Service) DeleteNote(_ context.Context, notePath string) error {
	if err := s.store.Delete(notePath); err != nil {
		return err
	}
	return s.db.DeleteNote(notePath)
}

// ListNotes returns paginated notes with optional topic filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, topic, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, topic, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Topic:     r.Topic,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Graph rebuilds the link graph from the vault. Always a full rescan.
func (s *Service) Graph(_ context.Context) (*linkgraph.Graph, error) {
	return s.builder.Build()
}

// Backlinks returns all note paths that mention the given target filename.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.db.Backlinks(path.Base(target))
}

// IndexFile parses data and upserts it into the index.
// Exported so that sync and watcher can reuse it.
func (s *Service) IndexFile(notePath string, data []byte) error {
	res := parser.Parse(data)
	return s.db.UpsertNote(index.NoteRow{
		Path:      notePath,
		Title:     res.Title,
		Topic:     res.Frontmatter["topic"],
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now(),
	}, res.Body, res.Mentions)
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading the file.
func (s *Service) buildNoteDetail(notePath string, data []byte) (*NoteDetail, error) {
	res := parser.Parse(data)
	bl, err := s.db.Backlinks(path.Base(notePath))
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Path:        notePath,
		Title:       res.Title,
		Topic:       res.Frontmatter["topic"],
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Frontmatter: res.Frontmatter,
		Mentions:    nonNilSlice(res.Mentions),
		Backlinks:   nonNilSlice(bl),
		UpdatedAt:   time.Now(),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
