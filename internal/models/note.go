// Package models defines the domain types for geokb.
package models

import "time"

// Note represents a parsed Markdown file in the vault.
// Filename (the base name) is the durable identity used for link
// resolution; Title is a display alias from frontmatter and may be
// empty or collide with other notes.
type Note struct {
	Path        string            `json:"path"`
	Filename    string            `json:"filename"`
	Title       string            `json:"title,omitempty"`
	Frontmatter map[string]string `json:"frontmatter,omitempty"`
	Body        string            `json:"body"`
	Mentions    []Mention         `json:"mentions,omitempty"`
	Checksum    string            `json:"checksum"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Mention is one occurrence of a Markdown link in a note body:
// the display text paired with the base filename it points at.
type Mention struct {
	Text   string `json:"text"`
	Target string `json:"target"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
