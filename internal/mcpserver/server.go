// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Daymark stamping tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/daymark/internal/engine"
	"github.com/starford/daymark/internal/journal"
	"github.com/starford/daymark/internal/policy"
	"github.com/starford/daymark/internal/storage"
)

// Server wraps the MCP server with Daymark tools.
type Server struct {
	mcp   *server.MCPServer
	eng   *engine.Service
	store storage.Provider
	db    journal.Ledger
}

// New creates a new MCP server with all Daymark tools registered.
func New(eng *engine.Service, store storage.Provider, db journal.Ledger) *Server {
	s := &Server{eng: eng, store: store, db: db}

	s.mcp = server.NewMCPServer(
		"Daymark",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("stamp_note",
		mcp.WithDescription("Stamp creation/modification metadata and today's date-visited "+
			"tag into a note's YAML frontmatter. kind selects the plan: 'created' stamps "+
			"created/modified/type and today's tag, 'edited' refreshes modified and today's "+
			"tag, 'manual' (default) only adds today's tag. Read the daymark://stamp-format "+
			"resource for the field layout."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. daily/2025-10-19.md)")),
		mcp.WithString("kind", mcp.Description("Stamp kind: created, edited, or manual (default manual)")),
	), s.stampNote)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("recent_stamps",
		mcp.WithDescription("List the most recently stamped notes from the stamp journal, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries to return (default 50)")),
	), s.recentStamps)

	s.mcp.AddTool(mcp.NewTool("get_stamp_format",
		mcp.WithDescription("Returns the canonical Daymark frontmatter stamp format. "+
			"Call this before creating notes that should carry stamp metadata."),
	), s.getStampFormat)

	// Resource: stamp format contract.
	s.mcp.AddResource(
		mcp.NewResource("daymark://stamp-format", "Stamp Format Contract",
			mcp.WithResourceDescription("Canonical frontmatter stamp layout Daymark maintains in every note."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readStampFormatResource,
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

func (s *Server) stampNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !storage.IsNote(path) {
		return mcp.NewToolResultError(fmt.Sprintf("not a markdown note: %s", path)), nil
	}

	kind := req.GetString("kind", engine.ManualKind)
	if kind == "" {
		kind = engine.ManualKind
	}

	var res *engine.Result
	switch kind {
	case engine.ManualKind:
		res, err = s.eng.AddToday(ctx, path)
	case string(policy.KindNew), string(policy.KindEdit), string(policy.KindTemplateDone):
		res, err = s.eng.Process(ctx, path, policy.Kind(kind))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind: %s", kind)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) recentStamps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 50)
	entries, err := s.db.Recent(limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no stamped notes yet"), nil
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getStampFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(StampFormatContract), nil
}

func (s *Server) readStampFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "daymark://stamp-format",
			MIMEType: "text/markdown",
			Text:     StampFormatContract,
		},
	}, nil
}
