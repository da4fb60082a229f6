package linkgraph

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ivkram/geokb/internal/apperr"
)

// Artifact filenames inside the system directory.
const (
	MappingJSONName = "LINK_MAPPING.json"
	MappingMDName   = "LINK_MAPPING.md"
)

// maxTableTexts caps how many display-text variants a report row shows.
const maxTableTexts = 5

// EncodeJSON serializes the graph. Map keys come out sorted, so repeated
// runs over unchanged input produce byte-identical output.
func (g *Graph) EncodeJSON() ([]byte, error) {
	out, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("linkgraph: encode mapping: %w", err)
	}
	return append(out, '\n'), nil
}

// WriteJSON writes the structured artifact. Write failure is fatal for the
// run; the previous artifact stays in place.
func (g *Graph) WriteJSON(path string) error {
	data, err := g.EncodeJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("linkgraph: write %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads a previously written mapping artifact. A missing file maps
// to apperr.ErrMappingMissing so callers can tell the user to build first.
func LoadJSON(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrMappingMissing
		}
		return nil, fmt.Errorf("linkgraph: read %s: %w", path, err)
	}
	g := NewGraph()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("linkgraph: parse %s: %w", path, err)
	}
	return g, nil
}

// RenderMarkdown produces the human-readable mapping report.
func (g *Graph) RenderMarkdown() string {
	var b strings.Builder

	b.WriteString("# Knowledge base link mapping\n")
	b.WriteString("\n")
	b.WriteString("Full mapping of links across the knowledge base:\n")
	b.WriteString("- existing notes and their titles\n")
	b.WriteString("- all links to notes, existing or not\n")
	b.WriteString("- display-text variants that point at the same note\n")
	b.WriteString("\n---\n\n")

	b.WriteString("## Existing notes\n\n")
	b.WriteString("| Title | Filename | Links | Linked from |\n")
	b.WriteString("|-------|----------|-------|-------------|\n")

	titles := make([]string, 0, len(g.ExistingNotes))
	for title := range g.ExistingNotes {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	for _, title := range titles {
		filename := g.ExistingNotes[title]
		linkCount := len(g.AllLinks[filename])
		sourceCount := len(g.FilesLinkingTo[filename])
		status := "[!]"
		if linkCount > 0 {
			status = "[OK]"
		}
		fmt.Fprintf(&b, "| %s | `%s` | %d %s | %d |\n",
			title, filename, linkCount, status, sourceCount)
	}

	if len(g.BrokenLinks) > 0 {
		b.WriteString("\n---\n\n")
		b.WriteString("## Broken links (missing files)\n\n")
		b.WriteString("| Filename | Display texts |\n")
		b.WriteString("|----------|---------------|\n")

		targets := make([]string, 0, len(g.BrokenLinks))
		for target := range g.BrokenLinks {
			targets = append(targets, target)
		}
		sort.Strings(targets)

		for _, target := range targets {
			fmt.Fprintf(&b, "| `%s` | %s |\n",
				target, formatTexts(g.BrokenLinks[target], maxTableTexts))
		}
	}

	stats := g.Stats()
	b.WriteString("\n---\n\n")
	b.WriteString("## Statistics\n\n")
	fmt.Fprintf(&b, "- Existing notes: %d\n", stats.TotalExistingNotes)
	fmt.Fprintf(&b, "- Files with inbound links: %d\n", stats.TotalLinkedFiles)
	fmt.Fprintf(&b, "- Broken links: %d\n", stats.TotalBrokenLinks)
	fmt.Fprintf(&b, "- Broken link mentions: %d\n", stats.TotalBrokenLinkMentions)

	return b.String()
}

// WriteMarkdown writes the human-readable artifact.
func (g *Graph) WriteMarkdown(path string) error {
	if err := os.WriteFile(path, []byte(g.RenderMarkdown()), 0o644); err != nil {
		return fmt.Errorf("linkgraph: write %s: %w", path, err)
	}
	return nil
}

// formatTexts joins up to max display texts as backticked, comma-separated
// values with a "+N more" suffix for the rest.
func formatTexts(texts []string, max int) string {
	shown := texts
	if len(shown) > max {
		shown = shown[:max]
	}
	quoted := make([]string, len(shown))
	for i, t := range shown {
		quoted[i] = "`" + t + "`"
	}
	s := strings.Join(quoted, ", ")
	if extra := len(texts) - max; extra > 0 {
		s += fmt.Sprintf(" (+%d more)", extra)
	}
	return s
}
