package audit

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivkram/geokb/internal/storage"
)

func testVault(t *testing.T, files map[string]string) storage.Provider {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
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

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_FindsThinNotes(t *testing.T) {
	store := testVault(t, map[string]string{
		"thin.md": "---\ntitle: Thin\ntopic: Geography\n---\n# Thin\n\nOne line.\n",
		"rich.md": "---\ntitle: Rich\ntopic: Geography\n---\n# Rich\n\na\nb\nc\nd\ne\nf\n",
	})

	thin, err := Run(store, "Geography", 5, quiet())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(thin) != 1 || len(thin[1]) != 1 || thin[1][0] != "thin.md" {
		t.Errorf("thin = %v, want {1: [thin.md]}", thin)
	}
}

func TestRun_TopicFilter(t *testing.T) {
	store := testVault(t, map[string]string{
		"geo.md":   "---\ntitle: G\ntopic: Geography\n---\n",
		"other.md": "---\ntitle: O\ntopic: History\n---\n",
	})

	thin, err := Run(store, "Geography", 5, quiet())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	total := 0
	for _, files := range thin {
		total += len(files)
		for _, f := range files {
			if f == "other.md" {
				t.Error("note with another topic reported")
			}
		}
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestRun_EmptyTopicMatchesAll(t *testing.T) {
	store := testVault(t, map[string]string{
		"a.md": "---\ntitle: A\ntopic: X\n---\n",
		"b.md": "no frontmatter\n",
	})
	thin, err := Run(store, "", 5, quiet())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	total := 0
	for _, files := range thin {
		total += len(files)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
}

func TestCountContentLines(t *testing.T) {
	cases := []struct {
		body string
		want int
	}{
		{"", 0},
		{"# Heading only\n", 0},
		{"# H\n\nreal line\n---\nanother\n", 2},
		{"one\ntwo\nthree\n", 3},
	}
	for _, tc := range cases {
		if got := countContentLines(tc.body); got != tc.want {
			t.Errorf("countContentLines(%q) = %d, want %d", tc.body, got, tc.want)
		}
	}
}

func TestRender_GroupsAscending(t *testing.T) {
	out := Render(map[int][]string{
		2: {"b.md"},
		0: {"a.md"},
	}, 5)

	i0 := strings.Index(out, "## 0 content lines")
	i2 := strings.Index(out, "## 2 content lines")
	if i0 < 0 || i2 < 0 || i0 > i2 {
		t.Errorf("groups not ascending:\n%s", out)
	}
	if !strings.Contains(out, "**Total found: 2 notes**") {
		t.Errorf("missing total:\n%s", out)
	}
}

func TestRender_SingularLine(t *testing.T) {
	out := Render(map[int][]string{1: {"a.md"}}, 5)
	if !strings.Contains(out, "## 1 content line (1 notes)") {
		t.Errorf("singular form missing:\n%s", out)
	}
}
