package linkgraph

import (
	"log/slog"
	"path"
	"sort"

	"github.com/ivkram/geokb/internal/parser"
	"github.com/ivkram/geokb/internal/storage"
)

// Builder scans a vault and assembles the link graph.
type Builder struct {
	store  storage.Provider
	logger *slog.Logger
}

// NewBuilder creates a builder over the given vault.
func NewBuilder(store storage.Provider, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, logger: logger}
}

// Build performs a full sequential scan and returns the assembled graph.
// Unreadable files are logged and skipped; only a failed listing aborts.
func (b *Builder) Build() (*Graph, error) {
	metas, err := b.store.List("")
	if err != nil {
		return nil, err
	}

	g := NewGraph()

	// Every scanned filename exists, readable or not. Identity is the
	// base filename, matching how links are normalized.
	existing := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		existing[path.Base(m.Path)] = struct{}{}
	}

	linkedFrom := make(map[string]map[string]struct{})

	for _, m := range metas {
		filename := path.Base(m.Path)

		data, err := b.store.Read(m.Path)
		if err != nil {
			b.logger.Warn("linkgraph: read failed, skipping",
				slog.String("path", m.Path),
				slog.String("error", err.Error()))
			continue
		}

		res := parser.Parse(data)

		if res.Title != "" {
			if prev, ok := g.ExistingNotes[res.Title]; ok && prev != filename {
				// Scan order decides the winner; surface it instead of
				// resolving silently.
				b.logger.Warn("linkgraph: duplicate title",
					slog.String("title", res.Title),
					slog.String("kept", filename),
					slog.String("shadowed", prev))
			}
			g.ExistingNotes[res.Title] = filename
		}

		for _, mention := range res.Mentions {
			g.AllLinks[mention.Target] = append(g.AllLinks[mention.Target], mention.Text)
			if linkedFrom[mention.Target] == nil {
				linkedFrom[mention.Target] = make(map[string]struct{})
			}
			linkedFrom[mention.Target][filename] = struct{}{}
		}
	}

	// Collapse duplicate display texts per target, first-seen order.
	for target, texts := range g.AllLinks {
		g.AllLinks[target] = dedup(texts)
	}

	// Classify targets with no matching note.
	for target, texts := range g.AllLinks {
		if _, ok := existing[target]; !ok {
			g.BrokenLinks[target] = texts
		}
	}

	// Sorted source lists keep the serialized output deterministic.
	for target, sources := range linkedFrom {
		list := make([]string, 0, len(sources))
		for s := range sources {
			list = append(list, s)
		}
		sort.Strings(list)
		g.FilesLinkingTo[target] = list
	}

	g.Statistics = g.Stats()
	return g, nil
}
