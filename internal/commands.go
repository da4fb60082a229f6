package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ivkram/geokb/internal/apperr"
	"github.com/ivkram/geokb/internal/audit"
	"github.com/ivkram/geokb/internal/importer"
	"github.com/ivkram/geokb/internal/linkgraph"
	"github.com/ivkram/geokb/internal/scaffold"
	"github.com/ivkram/geokb/internal/storage"
)

// cliRuntime bundles what every CLI command needs. The vault may be absent;
// commands that only read treat that as an empty vault.
type cliRuntime struct {
	cfg    *Config
	logger *slog.Logger
	store  storage.Provider // nil when the vault directory does not exist
}

func newCLIRuntime(cfg *Config) (*cliRuntime, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	rt := &cliRuntime{cfg: cfg, logger: logger}

	if info, err := os.Stat(cfg.Vault.Path); err == nil && info.IsDir() {
		store, err := storage.NewFS(cfg.Vault.Path)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		rt.store = store
	} else {
		logger.Warn("vault directory not found, treating as empty",
			slog.String("path", cfg.Vault.Path))
	}

	if err := os.MkdirAll(cfg.System.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create system dir: %w", err)
	}
	return rt, nil
}

// mustStore creates the vault directory on demand for commands that write
// notes into it.
func (rt *cliRuntime) mustStore() (storage.Provider, error) {
	if rt.store != nil {
		return rt.store, nil
	}
	if err := os.MkdirAll(rt.cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(rt.cfg.Vault.Path)
	if err != nil {
		return nil, err
	}
	rt.store = store
	return store, nil
}

// buildGraph assembles the link graph. A missing vault yields an empty
// graph rather than an error.
func (rt *cliRuntime) buildGraph() (*linkgraph.Graph, error) {
	if rt.store == nil {
		g := linkgraph.NewGraph()
		g.Statistics = g.Stats()
		return g, nil
	}
	return linkgraph.NewBuilder(rt.store, rt.logger).Build()
}

// BuildLinkMapping rescans the vault and writes both mapping artifacts into
// the system directory. The artifacts are always written, even for an empty
// vault; a write failure is fatal.
func BuildLinkMapping(cfg *Config) error {
	rt, err := newCLIRuntime(cfg)
	if err != nil {
		return err
	}
	g, err := rt.buildGraph()
	if err != nil {
		return err
	}

	jsonPath := filepath.Join(cfg.System.Dir, linkgraph.MappingJSONName)
	if err := g.WriteJSON(jsonPath); err != nil {
		return err
	}
	mdPath := filepath.Join(cfg.System.Dir, linkgraph.MappingMDName)
	if err := g.WriteMarkdown(mdPath); err != nil {
		return err
	}

	rt.logger.Info("link mapping written",
		slog.String("json", jsonPath),
		slog.String("markdown", mdPath),
		slog.Int("existing_notes", g.Statistics.TotalExistingNotes),
		slog.Int("broken_links", g.Statistics.TotalBrokenLinks))

	fmt.Printf("Link mapping: %d notes, %d broken links\n",
		g.Statistics.TotalExistingNotes, g.Statistics.TotalBrokenLinks)
	fmt.Printf("Written to %s and %s\n", jsonPath, mdPath)
	return nil
}

// FindBrokenLinks loads the stored mapping, re-checks it against the vault,
// and writes the broken links report.
func FindBrokenLinks(cfg *Config) error {
	rt, err := newCLIRuntime(cfg)
	if err != nil {
		return err
	}

	g, err := linkgraph.LoadJSON(filepath.Join(cfg.System.Dir, linkgraph.MappingJSONName))
	if err != nil {
		// An absent mapping means "not yet built", not a failure.
		if errors.Is(err, apperr.ErrMappingMissing) {
			fmt.Println("Link mapping not built yet, run `geokb link-mapping` first")
			return nil
		}
		return err
	}

	broken := g.BrokenLinks
	if rt.store != nil {
		broken, err = linkgraph.FilterBroken(g, rt.store)
		if err != nil {
			return err
		}
	}

	reportPath := filepath.Join(cfg.System.Dir, linkgraph.BrokenReportName)
	report := linkgraph.RenderBrokenReport(broken)
	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write broken links report: %w", err)
	}

	fmt.Printf("Broken links: %d targets\n", len(broken))
	fmt.Printf("Report written to %s\n", reportPath)
	return nil
}

// AuditPoorContent scans the vault for thin notes and writes the report.
func AuditPoorContent(cfg *Config) error {
	rt, err := newCLIRuntime(cfg)
	if err != nil {
		return err
	}

	thin := map[int][]string{}
	if rt.store != nil {
		thin, err = audit.Run(rt.store, cfg.Audit.Topic, cfg.Audit.MinContentLines, rt.logger)
		if err != nil {
			return err
		}
	}

	reportPath := filepath.Join(cfg.System.Dir, audit.ReportName)
	report := audit.Render(thin, cfg.Audit.MinContentLines)
	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write poor content report: %w", err)
	}

	total := 0
	for _, files := range thin {
		total += len(files)
	}
	fmt.Printf("Poor content: %d notes below %d lines\n", total, cfg.Audit.MinContentLines)
	fmt.Printf("Report written to %s\n", reportPath)
	return nil
}

// CreateNote scaffolds a new note from a template.
func CreateNote(cfg *Config, name, template, folder string) error {
	rt, err := newCLIRuntime(cfg)
	if err != nil {
		return err
	}
	store, err := rt.mustStore()
	if err != nil {
		return err
	}

	s := scaffold.New(store, cfg.Templates.Dir, cfg.Audit.Topic)
	rel, err := s.Create(name, template, folder)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s\n", filepath.Join(cfg.Vault.Path, rel))
	return nil
}

// ImportCountries imports the country list XML into vault notes and
// regenerates the countries MOC.
func ImportCountries(cfg *Config, xmlPath string) error {
	rt, err := newCLIRuntime(cfg)
	if err != nil {
		return err
	}
	store, err := rt.mustStore()
	if err != nil {
		return err
	}

	sum, err := importer.New(store, cfg.Audit.Topic, rt.logger).Run(xmlPath)
	if err != nil {
		return err
	}
	fmt.Printf("Countries imported: %d created, %d updated, %d skipped\n",
		sum.Created, sum.Updated, sum.Skipped)
	for region, n := range sum.ByRegion {
		rt.logger.Info("imported region", slog.String("region", region), slog.Int("count", n))
	}
	return nil
}

// RunAll builds the link mapping and then both reports in one pass, the
// order the artifacts depend on each other.
func RunAll(cfg *Config) error {
	if err := BuildLinkMapping(cfg); err != nil {
		return err
	}
	if err := FindBrokenLinks(cfg); err != nil {
		return err
	}
	return AuditPoorContent(cfg)
}
