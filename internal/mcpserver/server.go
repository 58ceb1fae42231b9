// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the postconf editing session as tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/postconf/internal/index"
	"github.com/starford/postconf/internal/postservice"
)

// Server wraps the MCP server with postconf tools.
type Server struct {
	mcp *server.MCPServer
	svc *postservice.Service
}

// New creates a new MCP server with all postconf tools registered.
func New(svc *postservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"postconf",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Return the post being prepared: title, date, categories, tags, and output directory."),
	), s.getSession)

	s.mcp.AddTool(mcp.NewTool("set_title",
		mcp.WithDescription("Replace the post title. An empty title is allowed while editing but not when saving."),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
	), s.setTitle)

	s.mcp.AddTool(mcp.NewTool("set_date",
		mcp.WithDescription("Set the publication date."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date as YYYY-MM-DD")),
	), s.setDate)

	s.mcp.AddTool(mcp.NewTool("add_category",
		mcp.WithDescription("Append a category. Fails if the category is already present."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Category name")),
	), s.addCategory)

	s.mcp.AddTool(mcp.NewTool("delete_category",
		mcp.WithDescription("Remove the category at a zero-based position."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Position from get_session")),
	), s.deleteCategory)

	s.mcp.AddTool(mcp.NewTool("add_tag",
		mcp.WithDescription("Append a tag. Fails if the tag is already present."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tag name")),
	), s.addTag)

	s.mcp.AddTool(mcp.NewTool("delete_tag",
		mcp.WithDescription("Remove the tag at a zero-based position."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Position from get_session")),
	), s.deleteTag)

	s.mcp.AddTool(mcp.NewTool("save_post",
		mcp.WithDescription("Write the post as a new Markdown file with YAML front matter. "+
			"Never overwrites an existing file. Read the format via get_post_format or the "+
			PostFormatURI+" resource."),
	), s.savePost)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List saved posts, newest first, optionally filtered by tag or category."),
		mcp.WithString("tag", mcp.Description("Only posts with this tag")),
		mcp.WithString("category", mcp.Description("Only posts in this category")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read a saved post's metadata and body."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File name returned by list_posts or save_post")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search through saved posts."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("get_vocabulary",
		mcp.WithDescription("Categories and tags already used by saved posts, most used first. "+
			"Prefer reusing these over inventing near-duplicates."),
	), s.getVocabulary)

	s.mcp.AddTool(mcp.NewTool("get_post_format",
		mcp.WithDescription("Returns the post file format contract. Call this before editing the session."),
	), s.getPostFormat)

	s.mcp.AddResource(
		mcp.NewResource(PostFormatURI, "Post Format Contract",
			mcp.WithResourceDescription("File name and front matter layout of saved posts."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// stateResult renders the session, or the failure as a tool error.
func stateResult(st postservice.State, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st)
}

func requireName(req mcp.CallToolRequest) (string, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name must not be blank")
	}
	return name, nil
}

func (s *Server) getSession(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Snapshot())
}

func (s *Server) setTitle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.SetTitle(title))
}

func (s *Server) setDate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return stateResult(s.svc.SetDate(date))
}

func (s *Server) addCategory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireName(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return stateResult(s.svc.AddCategory(name))
}

func (s *Server) deleteCategory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return stateResult(s.svc.DeleteCategory(i))
}

func (s *Server) addTag(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireName(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return stateResult(s.svc.AddTag(name))
}

func (s *Server) deleteTag(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return stateResult(s.svc.DeleteTag(i))
}

func (s *Server) savePost(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Save(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.ListPosts(ctx, index.ListFilter{
		Limit:    req.GetInt("limit", 0),
		Tag:      req.GetString("tag", ""),
		Category: req.GetString("category", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"posts": items, "total": total})
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := s.svc.GetPost(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(post)
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no posts found"), nil
	}
	return jsonResult(results)
}

func (s *Server) getVocabulary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.svc.Vocabulary(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(v)
}

func (s *Server) getPostFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      PostFormatURI,
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
