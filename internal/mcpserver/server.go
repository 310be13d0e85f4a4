// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes comicshelf tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/comicshelf/internal/library"
)

// Server wraps the MCP server with comicshelf tools.
type Server struct {
	mcp *server.MCPServer
	svc *library.Service
}

// New creates a new MCP server with all comicshelf tools registered.
func New(svc *library.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"comicshelf",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_comics",
		mcp.WithDescription("List every comic in the catalog with its metadata and file members."),
	), s.listComics)

	s.mcp.AddTool(mcp.NewTool("comic_detail",
		mcp.WithDescription("Show one comic: metadata, cover slots, and ordered pages."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Comic id")),
	), s.comicDetail)

	s.mcp.AddTool(mcp.NewTool("resolve_metadata",
		mcp.WithDescription("OCR the comic's full cover scan for an ISBN and resolve author/title "+
			"against bibliographic sources. Always returns a displayable pair; on total failure "+
			"the title is the raw ISBN."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Comic id (must have a full cover scan)")),
	), s.resolveMetadata)

	s.mcp.AddTool(mcp.NewTool("rescan",
		mcp.WithDescription("Reconcile the catalog against the scan directory: admit new files, drop missing ones."),
		mcp.WithString("target_id", mcp.Description("Optional comic id to merge conflict-free new files into")),
	), s.rescan)

	s.mcp.AddTool(mcp.NewTool("archive_comic",
		mcp.WithDescription("Pack the comic into <author>/<title>.zip in the store directory. "+
			"Destructive: the comic leaves the catalog and its scan files are deleted."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Comic id")),
	), s.archiveComic)

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

func (s *Server) listComics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.List(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) comicDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summary, err := s.svc.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) resolveMetadata(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	author, title, err := s.svc.Resolve(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]string{"author": author, "title": title}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) rescan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targetID := ""
	if v, err := req.RequireString("target_id"); err == nil {
		targetID = v
	}
	if err := s.svc.Rescan(targetID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("catalog now holds %d comics", len(s.svc.List()))), nil
}

func (s *Server) archiveComic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := s.svc.Archive(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("archived to %s", path)), nil
}
