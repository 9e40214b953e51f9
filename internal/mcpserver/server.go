// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the wiki to the reasoning agent via stdio transport. This is the
// orchestration loop's only access path to the store.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/stats"
	"github.com/starford/ansuz/internal/wiki"
)

// Server wraps the MCP server with wiki tools.
type Server struct {
	mcp      *server.MCPServer
	store    *wiki.Store
	counters *stats.Counters
}

// New creates a new MCP server with all wiki tools registered.
func New(store *wiki.Store, counters *stats.Counters) *Server {
	s := &Server{store: store, counters: counters}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a new wiki page with a unique title. "+
			"Fails if the title already exists; use update_page to modify. "+
			"Follow the page conventions (see the get_page_contract tool or "+
			"the ansuz://page-format resource)."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Unique page title (e.g. revenue/q1)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Free-form text body")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated labels like finding,todo")),
	), s.createPage)

	s.mcp.AddTool(mcp.NewTool("update_page",
		mcp.WithDescription("Modify an existing page. Provide either content "+
			"(replaces the body) or append (concatenates to it), never both. "+
			"A tags argument replaces the whole tag set."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the page to update")),
		mcp.WithString("content", mcp.Description("Replacement body")),
		mcp.WithString("append", mcp.Description("Text appended to the existing body")),
		mcp.WithString("tags", mcp.Description("Comma-separated replacement tag set")),
	), s.updatePage)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read a wiki page: content, tags, links, and timestamps."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Page title")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("delete_page",
		mcp.WithDescription("Delete a page. References to it are removed from every other page."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Page title")),
	), s.deletePage)

	s.mcp.AddTool(mcp.NewTool("link_pages",
		mcp.WithDescription("Add a directed cross-reference between two existing pages."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source page title")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target page title")),
	), s.linkPages)

	s.mcp.AddTool(mcp.NewTool("search_wiki",
		mcp.WithDescription("BM25-ranked full-text search over page content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("top_k", mcp.Description("Max results (default 5)")),
	), s.searchWiki)

	s.mcp.AddTool(mcp.NewTool("search_tags",
		mcp.WithDescription("List titles of pages carrying the given tag."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to match exactly")),
	), s.searchTags)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all pages that link to the specified page."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the page to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("toc",
		mcp.WithDescription("Table of contents: every page with its tags and last-updated iteration."),
	), s.toc)

	s.mcp.AddTool(mcp.NewTool("set_iteration",
		mcp.WithDescription("Advance the loop's iteration counter used for page timestamps. "+
			"Call once before each reasoning step; the counter never decreases."),
		mcp.WithNumber("iteration", mcp.Required(), mcp.Description("Current step index")),
	), s.setIteration)

	s.mcp.AddTool(mcp.NewTool("get_page_contract",
		mcp.WithDescription("Returns the wiki page conventions. Call this before "+
			"creating pages to keep titles, tags, and links consistent."),
	), s.getPageContract)

	// Resource: page conventions.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://page-format", "Page Format Contract",
			mcp.WithResourceDescription("Conventions for wiki page titles, tags, and links."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPageFormatResource,
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

func (s *Server) createPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pg, err := s.store.Create(title, content, splitTags(req.GetString("tags", "")))
	if err != nil {
		if errors.Is(err, apperr.ErrDuplicateTitle) {
			return mcp.NewToolResultError(fmt.Sprintf("page already exists: %s (use update_page)", title)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (iter %d)", pg.Title, pg.CreatedAt)), nil
}

func (s *Server) updatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// An argument that is present but empty is meaningful: content:"" blanks
	// the body and tags:"" clears the tag set, so absence is detected by key,
	// not by zero value.
	args := req.GetArguments()
	var opts wiki.UpdateOptions
	if raw, ok := args["content"]; ok {
		content, ok := raw.(string)
		if !ok {
			return mcp.NewToolResultError("content must be a string"), nil
		}
		opts.Content = &content
	}
	if raw, ok := args["append"]; ok {
		appendText, ok := raw.(string)
		if !ok {
			return mcp.NewToolResultError("append must be a string"), nil
		}
		opts.Append = &appendText
	}
	if raw, ok := args["tags"]; ok {
		tags, ok := raw.(string)
		if !ok {
			return mcp.NewToolResultError("tags must be a string"), nil
		}
		parsed := splitTags(tags)
		if parsed == nil {
			parsed = []string{}
		}
		opts.Tags = parsed
	}

	pg, err := s.store.Update(title, opts)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("page not found: %s", title)), nil
		case errors.Is(err, apperr.ErrInvalidArgument):
			return mcp.NewToolResultError("provide either content or append, not both"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s (iter %d)", pg.Title, pg.UpdatedAt)), nil
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pg, err := s.store.Get(title)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("page not found: %s", title)), nil
	}
	out, _ := json.MarshalIndent(pg, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deletePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.Delete(title); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("page not found: %s", title)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", title)), nil
}

func (s *Server) linkPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.Link(from, to); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("linked: %s -> %s", from, to)), nil
}

func (s *Server) searchWiki(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topK := req.GetInt("top_k", 0)
	results := s.store.Search(query, topK)
	if len(results) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	titles := s.store.SearchTags(tag)
	if len(titles) == 0 {
		return mcp.NewToolResultText("no pages with tag: " + tag), nil
	}
	return mcp.NewToolResultText(strings.Join(titles, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.store.Backlinks(title)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("page not found: %s", title)), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) toc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.store.TOC()), nil
}

func (s *Server) setIteration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := req.RequireInt("iteration")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.store.SetIteration(n)
	if s.counters != nil {
		s.counters.SetIteration(int64(s.store.Iteration()))
	}
	return mcp.NewToolResultText(fmt.Sprintf("iteration: %d", s.store.Iteration())), nil
}

func (s *Server) getPageContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PageFormatContract), nil
}

func (s *Server) readPageFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://page-format",
			MIMEType: "text/markdown",
			Text:     PageFormatContract,
		},
	}, nil
}

// splitTags parses a comma-separated tag argument into a set-ready slice.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
