// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the notebook to LLM clients via stdio transport.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/noteagator/internal/apperr"
	"github.com/starford/noteagator/internal/noteservice"
	"github.com/starford/noteagator/internal/render"
)

// NoteFormatURI identifies the note format resource.
const NoteFormatURI = "noteagator://note-format"

// Server wraps the MCP server with notebook tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all notebook tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"noteagator",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notebook",
		mcp.WithDescription("Numbered directory listing of the notebook, directories before files."),
		mcp.WithString("path", mcp.Description("Directory relative to the notebook base (empty for the base)")),
		mcp.WithNumber("depth", mcp.Description("Levels to list; 0 lists everything. Defaults to 1.")),
	), s.listNotebook)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive line search through every file in the notebook. Lists each matching file once."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search term")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note: its front matter metadata and body."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. work/deploy.md)")),
	), s.readNote)

	renderArgs := []mcp.ToolOption{
		mcp.WithDescription("Render a note with placeholder substitution and numbered copy blocks. " +
			"Read the contract first via get_note_contract or the " + NoteFormatURI + " resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithString("mode", mcp.Enum(string(render.ModeMarkdown), string(render.ModeSlim)),
			mcp.Description("Output mode; defaults to the note's declared format, then markdown")),
		mcp.WithNumber("copy", mcp.Description("Copy block number to extract")),
	}
	for _, key := range render.PlaceholderKeys {
		renderArgs = append(renderArgs, mcp.WithString(key,
			mcp.Description("Replacement for the placeholder declared under key "+key)))
	}
	s.mcp.AddTool(mcp.NewTool("render_note", renderArgs...), s.renderNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes with their description and declared format."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the note format contract: front matter fields, placeholders and copy blocks."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Note Format Contract",
			mcp.WithResourceDescription("Front matter and body conventions understood by the renderer."),
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

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found: " + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listNotebook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := s.svc.Dir(req.GetString("path", ""))
	if err != nil {
		return toolError(err), nil
	}
	var buf bytes.Buffer
	if _, err := s.svc.Tree(ctx, &buf, dir, req.GetInt("depth", 1)); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf bytes.Buffer
	d, err := s.svc.Search(ctx, &buf, query)
	if err != nil {
		return toolError(err), nil
	}
	if len(d) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.ReadNote(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note), nil
}

func (s *Server) renderNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := render.Options{
		Mode: req.GetString("mode", ""),
		Copy: req.GetInt("copy", 0),
	}
	for _, key := range render.PlaceholderKeys {
		if v := req.GetString(key, ""); v != "" {
			if opts.Replacements == nil {
				opts.Replacements = render.Replacements{}
			}
			opts.Replacements[key] = v
		}
	}
	res, err := s.svc.RenderNote(ctx, path, opts)
	if err != nil {
		return toolError(err), nil
	}

	var b strings.Builder
	b.WriteString(res.Metadata)
	b.WriteString("\n---\n")
	b.WriteString(res.Body)
	if opts.Copy > 0 {
		b.WriteString("\n\n")
		if res.CopyFound {
			b.WriteString(res.Copy)
		} else {
			b.WriteString(render.MissingCopyMessage(opts.Copy))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.svc.Notes(ctx, req.GetString("folder", ""))
	if err != nil {
		return toolError(err), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		line := n.Path
		if n.Description != "" {
			line += " - " + n.Description
		}
		lines = append(lines, line)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
