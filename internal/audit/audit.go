// Package audit finds notes whose body carries too little real content.
package audit

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ivkram/geokb/internal/parser"
	"github.com/ivkram/geokb/internal/storage"
)

// ReportName is the poor-content artifact filename.
const ReportName = "POOR_CONTENT.md"

// DefaultMinLines is the threshold below which a note counts as thin.
const DefaultMinLines = 5

// Run scans the vault for notes matching topic (empty topic matches every
// note) and returns thin ones grouped by content line count. Unreadable
// files are logged and skipped.
func Run(store storage.Provider, topic string, minLines int, logger *slog.Logger) (map[int][]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if minLines <= 0 {
		minLines = DefaultMinLines
	}

	metas, err := store.List("")
	if err != nil {
		return nil, err
	}

	thin := make(map[int][]string)
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("audit: read failed, skipping",
				slog.String("path", m.Path),
				slog.String("error", err.Error()))
			continue
		}

		res := parser.Parse(data)
		if topic != "" && res.Frontmatter["topic"] != topic {
			continue
		}

		n := countContentLines(res.Body)
		if n < minLines {
			thin[n] = append(thin[n], m.Path)
		}
	}

	for n := range thin {
		sort.Strings(thin[n])
	}
	return thin, nil
}

// countContentLines counts non-empty lines that are neither headings nor
// horizontal rules.
func countContentLines(body string) int {
	n := 0
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "---" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		n++
	}
	return n
}

// Render produces the poor-content report, groups ordered by line count
// ascending.
func Render(thin map[int][]string, minLines int) string {
	total := 0
	counts := make([]int, 0, len(thin))
	for n, files := range thin {
		counts = append(counts, n)
		total += len(files)
	}
	sort.Ints(counts)

	var b strings.Builder
	b.WriteString("# Notes with poor content\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "Notes with fewer than %d lines of real content (headings and frontmatter excluded).\n", minLines)
	b.WriteString("Sorted by content line count, ascending.\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "**Total found: %d notes**\n", total)

	for _, n := range counts {
		files := thin[n]
		noun := "lines"
		if n == 1 {
			noun = "line"
		}
		fmt.Fprintf(&b, "\n## %d content %s (%d notes)\n\n", n, noun, len(files))
		for _, f := range files {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
	}

	return b.String()
}
