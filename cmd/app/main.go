package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ivkram/geokb/internal"
	pkgconfig "github.com/ivkram/geokb/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

// loadConfig loads the config file on top of the defaults. A missing file is
// fine for CLI use; the defaults describe a vault in the working directory.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if cmd.IsSet("config") {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid default config: %w", err)
		}
		return cfg, nil
	}

	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "geokb",
		Usage: "Geography knowledge base toolkit: link mapping, content audits, note scaffolding, and an HTTP/MCP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "link-mapping",
				Usage: "Rescan the vault and write LINK_MAPPING.json and LINK_MAPPING.md",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.BuildLinkMapping(cfg)
				},
			},
			{
				Name:  "broken-links",
				Usage: "Re-check the stored link mapping and write BROKEN_LINKS.md",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.FindBrokenLinks(cfg)
				},
			},
			{
				Name:  "poor-content",
				Usage: "Scan the vault for thin notes and write POOR_CONTENT.md",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.AuditPoorContent(cfg)
				},
			},
			{
				Name:  "create-note",
				Usage: "Scaffold a new dated note from a template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Note name (becomes the slug and title)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "template",
						Aliases: []string{"t"},
						Usage:   "Template name under the templates directory",
					},
					&cli.StringFlag{
						Name:    "folder",
						Aliases: []string{"f"},
						Usage:   "Vault subfolder for the new note",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.CreateNote(cfg, cmd.String("name"), cmd.String("template"), cmd.String("folder"))
				},
			},
			{
				Name:      "import-countries",
				Usage:     "Import the country list XML into vault notes and regenerate the countries MOC",
				ArgsUsage: "<countries.xml>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					xmlPath := cmd.Args().First()
					if xmlPath == "" {
						return fmt.Errorf("path to the countries XML file is required")
					}
					return internal.ImportCountries(cfg, xmlPath)
				},
			},
			{
				Name:  "all",
				Usage: "Run link-mapping, broken-links, and poor-content in sequence",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunAll(cfg)
				},
			},
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server with live vault watching",
				Action: serve,
			},
			{
				Name:  "mcp",
				Usage: "Start the MCP server on stdio",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunMCP(cfg)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
