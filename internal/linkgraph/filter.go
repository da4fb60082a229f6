package linkgraph

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ivkram/geokb/internal/storage"
)

// BrokenReportName is the filtered broken-links artifact filename.
const BrokenReportName = "BROKEN_LINKS.md"

// maxReportTexts caps display texts per row in the filtered report, which is
// wider than the mapping table.
const maxReportTexts = 10

// FilterBroken re-checks the mapping's broken targets against the current
// vault listing and returns the ones still missing. The mapping may be
// stale; a target created since the last build drops out here.
func FilterBroken(g *Graph, store storage.Provider) (map[string][]string, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		existing[path.Base(m.Path)] = struct{}{}
	}

	broken := make(map[string][]string)
	for target, texts := range g.BrokenLinks {
		if _, ok := existing[target]; !ok {
			broken[target] = texts
		}
	}
	return broken, nil
}

// RenderBrokenReport produces the broken-links report, rows sorted by
// mention count descending (filename ascending on ties).
func RenderBrokenReport(broken map[string][]string) string {
	targets := make([]string, 0, len(broken))
	for target := range broken {
		targets = append(targets, target)
	}
	sort.Slice(targets, func(i, j int) bool {
		ci, cj := len(broken[targets[i]]), len(broken[targets[j]])
		if ci != cj {
			return ci > cj
		}
		return targets[i] < targets[j]
	})

	totalMentions := 0
	for _, texts := range broken {
		totalMentions += len(texts)
	}

	var b strings.Builder
	b.WriteString("# Broken links\n")
	b.WriteString("\n")
	b.WriteString("Notes that are linked from the knowledge base but do not exist.\n")
	b.WriteString("\n")
	b.WriteString("**Statistics:**\n")
	fmt.Fprintf(&b, "- Broken links: %d\n", len(broken))
	fmt.Fprintf(&b, "- Broken link mentions: %d\n", totalMentions)
	b.WriteString("\n---\n\n")
	b.WriteString("## Broken links (by mention count)\n\n")
	b.WriteString("| Filename | Mentions | Display texts |\n")
	b.WriteString("|----------|----------|---------------|\n")

	for _, target := range targets {
		texts := broken[target]
		fmt.Fprintf(&b, "| `%s` | %d | %s |\n",
			target, len(texts), formatTexts(texts, maxReportTexts))
	}

	return b.String()
}
