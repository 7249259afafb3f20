package mcp

import (
	"context"
	"fmt"

	domainDiscovery "github.com/kavelar/moviemind/domains/discovery"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type DiscoveryHandler struct {
	discoveryService domainDiscovery.IDiscoveryUsecase
}

func InitMcpDiscovery(discoveryService domainDiscovery.IDiscoveryUsecase) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
	}
}

func (h *DiscoveryHandler) AddDiscoveryTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolGetTrending(), h.handleGetTrending)
	mcpServer.AddTool(h.toolGetCategory(), h.handleGetCategory)
	mcpServer.AddTool(h.toolSearchContent(), h.handleSearchContent)
}

func (h *DiscoveryHandler) toolGetTrending() mcp.Tool {
	return mcp.NewTool(
		"moviemind_get_trending",
		mcp.WithDescription("Retrieve the current list of trending movies and TV shows."),
		mcp.WithTitleAnnotation("Get Trending Content"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func (h *DiscoveryHandler) handleGetTrending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_ = request
	result := h.discoveryService.Trending(ctx)

	fallback := fmt.Sprintf("Found %d trending titles (source: %s)", len(result.Items), result.Source)
	return mcp.NewToolResultStructured(result, fallback), nil
}

func (h *DiscoveryHandler) toolGetCategory() mcp.Tool {
	return mcp.NewTool(
		"moviemind_get_category",
		mcp.WithDescription("Retrieve content for a named category. Known categories: tv, movies, new, web. Unknown names fall back to a general trending list."),
		mcp.WithTitleAnnotation("Get Category Content"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("category",
			mcp.Description("The category name to fetch content for."),
			mcp.Required(),
		),
	)
}

func (h *DiscoveryHandler) handleGetCategory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := request.RequireString("category")
	if err != nil {
		return nil, err
	}

	result := h.discoveryService.Category(ctx, category)

	fallback := fmt.Sprintf("Found %d titles in category %q (source: %s)", len(result.Items), category, result.Source)
	return mcp.NewToolResultStructured(result, fallback), nil
}

func (h *DiscoveryHandler) toolSearchContent() mcp.Tool {
	return mcp.NewTool(
		"moviemind_search_content",
		mcp.WithDescription("Search for movies and TV shows by free-text query. The query is interpreted as mood, genre, actor or plot description and each match carries a short reason."),
		mcp.WithTitleAnnotation("Search Content"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("query",
			mcp.Description("Free-text search query, e.g. \"sad movies\" or \"slow-burn sci-fi\"."),
			mcp.Required(),
		),
	)
}

func (h *DiscoveryHandler) handleSearchContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return nil, err
	}

	result, err := h.discoveryService.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Found %d titles matching %q (source: %s)", len(result.Items), query, result.Source)
	return mcp.NewToolResultStructured(result, fallback), nil
}
