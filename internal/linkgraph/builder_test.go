package linkgraph

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ivkram/geokb/internal/storage"
)

func testVault(t *testing.T, files map[string]string) storage.Provider {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return store
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildGraph(t *testing.T, files map[string]string) *Graph {
	t.Helper()
	g, err := NewBuilder(testVault(t, files), quietLogger()).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestBuild_ResolvedLinks(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"A.md": "---\ntitle: Alpha\n---\nSee [Beta](b.md).\n",
		"b.md": "---\ntitle: Beta\n---\nNo links here.\n",
	})

	wantNotes := map[string]string{"Alpha": "A.md", "Beta": "b.md"}
	if !reflect.DeepEqual(g.ExistingNotes, wantNotes) {
		t.Errorf("ExistingNotes = %v, want %v", g.ExistingNotes, wantNotes)
	}
	if !reflect.DeepEqual(g.AllLinks, map[string][]string{"b.md": {"Beta"}}) {
		t.Errorf("AllLinks = %v", g.AllLinks)
	}
	if len(g.BrokenLinks) != 0 {
		t.Errorf("BrokenLinks = %v, want empty", g.BrokenLinks)
	}
	if !reflect.DeepEqual(g.FilesLinkingTo, map[string][]string{"b.md": {"A.md"}}) {
		t.Errorf("FilesLinkingTo = %v", g.FilesLinkingTo)
	}
}

func TestBuild_BrokenTargetKeepsDedupedTexts(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"A.md": "[Gamma](c.md) and [Gamma2](c.md)\n",
	})

	if !reflect.DeepEqual(g.BrokenLinks, map[string][]string{"c.md": {"Gamma", "Gamma2"}}) {
		t.Errorf("BrokenLinks = %v", g.BrokenLinks)
	}
	if g.Statistics.TotalBrokenLinkMentions != 2 {
		t.Errorf("TotalBrokenLinkMentions = %d, want 2", g.Statistics.TotalBrokenLinkMentions)
	}
}

func TestBuild_DisplayTextOrderAcrossFiles(t *testing.T) {
	// Walk order is lexical, so A.md contributes first.
	g := buildGraph(t, map[string]string{
		"A.md": "[A](./x.md)\n",
		"B.md": "[B](x.md)\n",
	})

	if !reflect.DeepEqual(g.AllLinks["x.md"], []string{"A", "B"}) {
		t.Errorf(`AllLinks["x.md"] = %v, want [A B]`, g.AllLinks["x.md"])
	}
	if !reflect.DeepEqual(g.FilesLinkingTo["x.md"], []string{"A.md", "B.md"}) {
		t.Errorf(`FilesLinkingTo["x.md"] = %v`, g.FilesLinkingTo["x.md"])
	}
}

func TestBuild_DuplicateTextsCollapseFirstSeen(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"A.md": "[Z](t.md) [Y](t.md) [Z](t.md)\n",
	})
	if !reflect.DeepEqual(g.AllLinks["t.md"], []string{"Z", "Y"}) {
		t.Errorf(`AllLinks["t.md"] = %v, want first-seen order [Z Y]`, g.AllLinks["t.md"])
	}
}

func TestBuild_TitleCollisionLastWins(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"a.md": "---\ntitle: Same\n---\n",
		"z.md": "---\ntitle: Same\n---\n",
	})
	// Lexical walk order: z.md is scanned last and wins.
	if g.ExistingNotes["Same"] != "z.md" {
		t.Errorf(`ExistingNotes["Same"] = %q, want z.md`, g.ExistingNotes["Same"])
	}
	if g.Statistics.TotalExistingNotes != 1 {
		t.Errorf("TotalExistingNotes = %d, want 1", g.Statistics.TotalExistingNotes)
	}
}

func TestBuild_UntitledNoteStillCountsAsExisting(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"untitled.md": "no frontmatter, no title\n",
		"A.md":        "[U](untitled.md)\n",
	})
	if len(g.ExistingNotes) != 0 {
		t.Errorf("ExistingNotes = %v, want empty", g.ExistingNotes)
	}
	// The target exists on disk, so it is not broken even without a title.
	if len(g.BrokenLinks) != 0 {
		t.Errorf("BrokenLinks = %v, want empty", g.BrokenLinks)
	}
}

func TestBuild_SubdirNotesResolveByBasename(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"topics/deep.md": "---\ntitle: Deep\n---\n",
		"A.md":           "[D](./topics/deep.md)\n",
	})
	if len(g.BrokenLinks) != 0 {
		t.Errorf("BrokenLinks = %v, want empty (deep.md exists)", g.BrokenLinks)
	}
	if !reflect.DeepEqual(g.AllLinks["deep.md"], []string{"D"}) {
		t.Errorf("AllLinks = %v", g.AllLinks)
	}
}

func TestBuild_UnreadableFileDoesNotAbortScan(t *testing.T) {
	dir := t.TempDir()
	content := "---\ntitle: Alpha\n---\nSee [Beta](b.md).\n"
	if err := os.WriteFile(filepath.Join(dir, "A.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.md"), []byte("---\ntitle: Beta\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(dir, "ghost.md")); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	g, err := NewBuilder(store, quietLogger()).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.ExistingNotes["Alpha"] != "A.md" || g.ExistingNotes["Beta"] != "b.md" {
		t.Errorf("ExistingNotes = %v", g.ExistingNotes)
	}
	if len(g.BrokenLinks) != 0 {
		t.Errorf("BrokenLinks = %v, want empty", g.BrokenLinks)
	}
}

func TestBuild_EmptyVault(t *testing.T) {
	g := buildGraph(t, nil)
	if g.Statistics != (Statistics{}) {
		t.Errorf("Statistics = %+v, want zeroes", g.Statistics)
	}
	if g.ExistingNotes == nil || g.AllLinks == nil || g.BrokenLinks == nil || g.FilesLinkingTo == nil {
		t.Error("maps must be allocated even for an empty vault")
	}
}

func TestBuild_StatisticsInvariant(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"A.md": "---\ntitle: Alpha\n---\n[One](gone.md) [Two](gone.md) [B](b.md) [X](also-gone.md)\n",
		"b.md": "---\ntitle: Beta\n---\n",
	})

	if g.Statistics.TotalBrokenLinks != len(g.BrokenLinks) {
		t.Errorf("TotalBrokenLinks = %d, len(BrokenLinks) = %d",
			g.Statistics.TotalBrokenLinks, len(g.BrokenLinks))
	}
	sum := 0
	for _, texts := range g.BrokenLinks {
		sum += len(texts)
	}
	if g.Statistics.TotalBrokenLinkMentions != sum {
		t.Errorf("TotalBrokenLinkMentions = %d, want %d", g.Statistics.TotalBrokenLinkMentions, sum)
	}
	if g.Statistics.TotalLinkedFiles != len(g.AllLinks) {
		t.Errorf("TotalLinkedFiles = %d, want %d", g.Statistics.TotalLinkedFiles, len(g.AllLinks))
	}

	// broken_links keys never intersect existing filenames.
	existing := make(map[string]struct{})
	for _, fn := range g.ExistingNotes {
		existing[fn] = struct{}{}
	}
	for target := range g.BrokenLinks {
		if _, ok := existing[target]; ok {
			t.Errorf("broken target %q is an existing note", target)
		}
	}
}
