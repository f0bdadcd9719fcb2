// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Dagaz journal tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/halvard/dagaz/internal/attachment"
	"github.com/halvard/dagaz/internal/journal"
)

// Server wraps the MCP server with Dagaz tools. All tool calls act as the
// configured owner.
type Server struct {
	mcp         *server.MCPServer
	journal     *journal.Service
	attachments *attachment.Service
	owner       string
}

// New creates a new MCP server with all Dagaz tools registered.
func New(journalSvc *journal.Service, attachments *attachment.Service, owner string) *Server {
	s := &Server{journal: journalSvc, attachments: attachments, owner: owner}

	s.mcp = server.NewMCPServer(
		"Dagaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List journal entries, newest first. Optionally filter by tag."),
		mcp.WithString("tag", mcp.Description("Optional tag to filter by")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read the full content of a journal entry."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry ID")),
	), s.readEntry)

	s.mcp.AddTool(mcp.NewTool("create_entry",
		mcp.WithDescription("Create a new journal entry. Content MUST follow the canonical "+
			"entry format (restricted Markdown). Read the contract first via the "+
			"get_entry_contract tool or the dagaz://entry-format resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Entry title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the Dagaz entry format contract")),
	), s.createEntry)

	s.mcp.AddTool(mcp.NewTool("get_entry_contract",
		mcp.WithDescription("Returns the canonical Dagaz entry format contract. "+
			"Call this before creating entries to ensure correct structure."),
	), s.getEntryContract)

	s.mcp.AddTool(mcp.NewTool("upload_image",
		mcp.WithDescription("Upload an image attachment to an existing entry from a base64 "+
			"data URI. Returns the durable URL and a ready-to-insert Markdown embed."),
		mcp.WithString("entry_id", mcp.Required(), mcp.Description("Entry the image belongs to")),
		mcp.WithString("data_uri", mcp.Required(), mcp.Description("data:<mime>;base64,<data> URI (jpeg, png, gif or webp)")),
		mcp.WithString("filename", mcp.Description("Optional original filename")),
	), s.uploadImage)

	// Resource: entry format contract.
	s.mcp.AddResource(
		mcp.NewResource("dagaz://entry-format", "Entry Format Contract",
			mcp.WithResourceDescription("Canonical Markdown entry format that all entries must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryFormatResource,
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

type entrySummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags,omitempty"`
	EntryDate time.Time `json:"entry_date"`
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := ""
	if v, err := req.RequireString("tag"); err == nil {
		tag = v
	}
	items, _, err := s.journal.ListEntries(ctx, s.owner, 50, 0, tag, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summaries := make([]entrySummary, len(items))
	for i, e := range items {
		summaries[i] = entrySummary{ID: e.ID, Title: e.Title, Tags: e.Tags, EntryDate: e.EntryDate}
	}
	out, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.journal.GetEntry(ctx, s.owner, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(entry, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.journal.CreateEntry(ctx, s.owner, journal.EntryInput{
		Title:   title,
		Content: content,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", entry.ID)), nil
}

func (s *Server) getEntryContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EntryFormatContract), nil
}

func (s *Server) readEntryFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "dagaz://entry-format",
			MIMEType: "text/markdown",
			Text:     EntryFormatContract,
		},
	}, nil
}
