// Package scaffold creates new notes from templates with timestamped
// filenames.
package scaffold

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivkram/geokb/internal/apperr"
	"github.com/ivkram/geokb/internal/parser"
	"github.com/ivkram/geokb/internal/storage"
)

// DefaultTemplate is used when no template is named.
const DefaultTemplate = "template-evergreen"

// Scaffolder creates notes in the vault from a template directory.
type Scaffolder struct {
	store        storage.Provider
	templatesDir string
	topic        string
	now          func() time.Time
}

// New creates a scaffolder. topic is the frontmatter topic value stamped
// into every created note.
func New(store storage.Provider, templatesDir, topic string) *Scaffolder {
	return &Scaffolder{
		store:        store,
		templatesDir: templatesDir,
		topic:        topic,
		now:          time.Now,
	}
}

// Create writes a new note named YYYYMMDD_<name>.md under folder (vault
// root when empty) and returns its vault-relative path. An existing file at
// that path is an error, never overwritten.
func (s *Scaffolder) Create(name, template, folder string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("scaffold: name is required")
	}
	if template == "" {
		template = DefaultTemplate
	}

	now := s.now()
	stamp := now.Format("20060102")
	rel := path.Join(folder, fmt.Sprintf("%s_%s.md", stamp, name))

	if _, err := s.store.Read(rel); err == nil {
		return "", fmt.Errorf("scaffold: %s: %w", rel, apperr.ErrAlreadyExists)
	}

	content, err := s.render(name, template, now)
	if err != nil {
		return "", err
	}
	content = s.ensureTopic(content)

	if err := s.store.Write(rel, []byte(content)); err != nil {
		return "", err
	}
	return rel, nil
}

// render loads the template and substitutes placeholders, falling back to a
// built-in frontmatter skeleton when the template file is absent.
func (s *Scaffolder) render(name, template string, now time.Time) (string, error) {
	raw, err := os.ReadFile(filepath.Join(s.templatesDir, template+".md"))
	if err != nil {
		if os.IsNotExist(err) {
			return s.defaultContent(name, template), nil
		}
		return "", fmt.Errorf("scaffold: read template %s: %w", template, err)
	}
	return expandPlaceholders(string(raw), name, now), nil
}

// expandPlaceholders substitutes the template placeholders the original
// Obsidian templates use.
func expandPlaceholders(content, name string, now time.Time) string {
	r := strings.NewReplacer(
		"{{title}}", name,
		"{{date:YYYYMMDDHHmm}}", now.Format("200601021504"),
		"{{date:YYYYMMDD}}", now.Format("20060102"),
		"{{date:YYYY-MM-DD}}", now.Format("2006-01-02"),
		"{{date:MM-DD}}", now.Format("01-02"),
		"{{date:YYYY}}", now.Format("2006"),
	)
	return r.Replace(content)
}

// defaultContent builds the fallback note skeleton. The note type is
// guessed from the template name.
func (s *Scaffolder) defaultContent(name, template string) string {
	noteType := "Evergreen"
	switch {
	case strings.Contains(strings.ToLower(template), "literature"):
		noteType = "Literature"
	case strings.Contains(strings.ToLower(template), "project"):
		noteType = "Project"
	}

	return fmt.Sprintf(`---
title: %s
type: %s
status: IN PROGRESS
category: %s
topic: %s
---

# %s

`, name, noteType, s.topic, s.topic, name)
}

// ensureTopic guarantees the frontmatter carries the configured topic. A
// template without a topic key gets one injected before the closing
// delimiter; content without frontmatter is left alone.
func (s *Scaffolder) ensureTopic(content string) string {
	if s.topic == "" {
		return content
	}
	res := parser.Parse([]byte(content))
	if res.Frontmatter == nil || res.Frontmatter["topic"] != "" {
		return content
	}

	rest := strings.TrimPrefix(content, "---")
	end := strings.Index(rest, "---")
	block := strings.TrimRight(rest[:end], "\n")
	return "---" + block + "\ntopic: " + s.topic + "\n---" + rest[end+len("---"):]
}
