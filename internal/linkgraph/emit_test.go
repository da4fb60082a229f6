package linkgraph

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ivkram/geokb/internal/apperr"
)

func sampleGraph() *Graph {
	g := NewGraph()
	g.ExistingNotes = map[string]string{"Alpha": "A.md", "Beta": "b.md"}
	g.AllLinks = map[string][]string{
		"b.md":    {"Beta", "beta note"},
		"gone.md": {"One", "Two", "Three", "Four", "Five", "Six", "Seven"},
	}
	g.BrokenLinks = map[string][]string{
		"gone.md": {"One", "Two", "Three", "Four", "Five", "Six", "Seven"},
	}
	g.FilesLinkingTo = map[string][]string{
		"b.md":    {"A.md"},
		"gone.md": {"A.md", "b.md"},
	}
	g.Statistics = g.Stats()
	return g
}

func TestEncodeJSON_Deterministic(t *testing.T) {
	g := sampleGraph()
	first, err := g.EncodeJSON()
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	second, _ := g.EncodeJSON()
	if !bytes.Equal(first, second) {
		t.Error("repeated encodings differ")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	g := sampleGraph()
	path := filepath.Join(t.TempDir(), MappingJSONName)
	if err := g.WriteJSON(path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	loaded, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if !reflect.DeepEqual(loaded.BrokenLinks, g.BrokenLinks) {
		t.Errorf("BrokenLinks = %v, want %v", loaded.BrokenLinks, g.BrokenLinks)
	}
	// Re-deriving statistics from the reloaded maps reproduces the
	// persisted counts.
	if loaded.Stats() != g.Statistics {
		t.Errorf("Stats() = %+v, want %+v", loaded.Stats(), g.Statistics)
	}
}

func TestLoadJSON_MissingFile(t *testing.T) {
	_, err := LoadJSON(filepath.Join(t.TempDir(), MappingJSONName))
	if !errors.Is(err, apperr.ErrMappingMissing) {
		t.Errorf("err = %v, want ErrMappingMissing", err)
	}
}

func TestRenderMarkdown_Sections(t *testing.T) {
	out := sampleGraph().RenderMarkdown()

	for _, want := range []string{
		"## Existing notes",
		"## Broken links (missing files)",
		"## Statistics",
		"| Alpha | `A.md` | 0 [!] | 0 |",
		"| Beta | `b.md` | 2 [OK] | 1 |",
		"- Existing notes: 2",
		"- Broken links: 1",
		"- Broken link mentions: 7",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}

	// 7 display texts: first 5 shown, then the suffix.
	if !strings.Contains(out, "`One`, `Two`, `Three`, `Four`, `Five` (+2 more)") {
		t.Errorf("broken row not truncated as expected:\n%s", out)
	}
	if strings.Contains(out, "`Six`") {
		t.Errorf("texts beyond the cap should not appear:\n%s", out)
	}
}

func TestRenderMarkdown_TitlesSorted(t *testing.T) {
	g := NewGraph()
	g.ExistingNotes = map[string]string{"Zulu": "z.md", "Alpha": "a.md", "Mike": "m.md"}
	out := g.RenderMarkdown()

	iA := strings.Index(out, "| Alpha |")
	iM := strings.Index(out, "| Mike |")
	iZ := strings.Index(out, "| Zulu |")
	if iA < 0 || iM < 0 || iZ < 0 || !(iA < iM && iM < iZ) {
		t.Errorf("titles not sorted ascending:\n%s", out)
	}
}

func TestRenderMarkdown_NoBrokenSectionWhenClean(t *testing.T) {
	g := NewGraph()
	g.ExistingNotes = map[string]string{"Alpha": "a.md"}
	out := g.RenderMarkdown()
	if strings.Contains(out, "## Broken links") {
		t.Errorf("broken section emitted for a clean graph:\n%s", out)
	}
}

func TestEmissionIdempotent(t *testing.T) {
	g := sampleGraph()
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, MappingJSONName)
	mdPath := filepath.Join(dir, MappingMDName)

	for i := 0; i < 2; i++ {
		if err := g.WriteJSON(jsonPath); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
		if err := g.WriteMarkdown(mdPath); err != nil {
			t.Fatalf("WriteMarkdown: %v", err)
		}
	}

	jsonOut, _ := os.ReadFile(jsonPath)
	mdOut, _ := os.ReadFile(mdPath)
	jsonAgain, _ := g.EncodeJSON()
	if !bytes.Equal(jsonOut, jsonAgain) {
		t.Error("JSON artifact differs between runs")
	}
	if string(mdOut) != g.RenderMarkdown() {
		t.Error("markdown artifact differs between runs")
	}
}
