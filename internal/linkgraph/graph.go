// Package linkgraph builds the bidirectional link mapping of the vault:
// which notes exist, which filenames are linked, under which display texts,
// and which of those targets are broken. The graph is rebuilt from scratch
// on every invocation; the only persisted artifacts are the two report
// files, overwritten wholesale.
package linkgraph

// Graph is the derived, read-only link mapping of a vault scan.
type Graph struct {
	// ExistingNotes maps frontmatter title to filename. On title
	// collision the later-scanned file wins.
	ExistingNotes map[string]string `json:"existing_notes"`
	// BrokenLinks maps each target with no matching note to its distinct
	// display texts, first-seen order.
	BrokenLinks map[string][]string `json:"broken_links"`
	// AllLinks maps every mentioned target filename to the distinct
	// display texts observed anywhere, first-seen order.
	AllLinks map[string][]string `json:"all_links"`
	// FilesLinkingTo maps a target filename to the sorted set of source
	// filenames that reference it.
	FilesLinkingTo map[string][]string `json:"files_linking_to"`
	Statistics     Statistics          `json:"statistics"`
}

// Statistics are derived counts; they carry no information of their own.
type Statistics struct {
	TotalExistingNotes      int `json:"total_existing_notes"`
	TotalLinkedFiles        int `json:"total_linked_files"`
	TotalBrokenLinks        int `json:"total_broken_links"`
	TotalBrokenLinkMentions int `json:"total_broken_link_mentions"`
}

// NewGraph returns an empty graph with all maps allocated, so that a scan
// of a missing or empty vault still serializes with every top-level key.
func NewGraph() *Graph {
	return &Graph{
		ExistingNotes:  map[string]string{},
		BrokenLinks:    map[string][]string{},
		AllLinks:       map[string][]string{},
		FilesLinkingTo: map[string][]string{},
	}
}

// Stats recomputes the derived counts from the graph maps.
func (g *Graph) Stats() Statistics {
	s := Statistics{
		TotalExistingNotes: len(g.ExistingNotes),
		TotalLinkedFiles:   len(g.AllLinks),
		TotalBrokenLinks:   len(g.BrokenLinks),
	}
	for _, texts := range g.BrokenLinks {
		s.TotalBrokenLinkMentions += len(texts)
	}
	return s
}

// dedup collapses exact duplicates while preserving first-occurrence order.
func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
