// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the vault's tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ivkram/geokb/internal/checksum"
	"github.com/ivkram/geokb/internal/index"
	"github.com/ivkram/geokb/internal/linkgraph"
	"github.com/ivkram/geokb/internal/parser"
	"github.com/ivkram/geokb/internal/storage"
)

// Server wraps the MCP server with geokb tools.
type Server struct {
	mcp       *server.MCPServer
	store     storage.Provider
	db        *index.DB
	builder   *linkgraph.Builder
	systemDir string
}

// New creates a new MCP server with all geokb tools registered. systemDir
// is where rebuild_link_mapping writes its artifacts.
func New(store storage.Provider, db *index.DB, systemDir string, logger *slog.Logger) *Server {
	s := &Server{
		store:     store,
		db:        db,
		builder:   linkgraph.NewBuilder(store, logger),
		systemDir: systemDir,
	}

	s.mcp = server.NewMCPServer(
		"geokb",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through notes content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. regions/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new Markdown note at the specified path. "+
			"Content MUST follow the canonical note format (YAML frontmatter with title, "+
			"Markdown body with [text](file.md) links). Read the contract first via "+
			"the get_note_contract tool or the geokb://note-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new note (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the geokb note format contract")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical geokb note format contract. "+
			"Call this before creating or updating notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes or notes in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path or filename of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("rebuild_link_mapping",
		mcp.WithDescription("Rescan the whole vault, rebuild the link mapping, and write "+
			"LINK_MAPPING.json and LINK_MAPPING.md. Returns the mapping statistics."),
	), s.rebuildLinkMapping)

	s.mcp.AddTool(mcp.NewTool("find_broken_links",
		mcp.WithDescription("List links whose target note does not exist in the vault."),
	), s.findBrokenLinks)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("geokb://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format that all notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notePath, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(notePath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", notePath)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notePath, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, readErr := s.store.Read(notePath); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("note already exists: %s", notePath)), nil
	}

	data := []byte(content)
	if err := s.store.Write(notePath, data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := parser.Parse(data)
	_ = s.db.UpsertNote(index.NoteRow{
		Path:     notePath,
		Title:    res.Title,
		Topic:    res.Frontmatter["topic"],
		Checksum: checksum.Sum(data),
	}, res.Body, res.Mentions)

	return mcp.NewToolResultText(fmt.Sprintf("created: %s", notePath)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "geokb://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notePath, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// Links target base filenames, so accept either form.
	bl, err := s.db.Backlinks(path.Base(notePath))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) rebuildLinkMapping(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := s.builder.Build()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := g.WriteJSON(filepath.Join(s.systemDir, linkgraph.MappingJSONName)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := g.WriteMarkdown(filepath.Join(s.systemDir, linkgraph.MappingMDName)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(g.Statistics, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findBrokenLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := s.builder.Build()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(g.BrokenLinks) == 0 {
		return mcp.NewToolResultText("no broken links"), nil
	}
	out, _ := json.MarshalIndent(g.BrokenLinks, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
