package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"newsbrief/internal/domain"
)

const (
	Version      = "0.1.0"
	EndpointPath = "/mcp"

	toolName = "summarize_article"
)

// Summarizer is the service behind the tool.
type Summarizer interface {
	Summarize(ctx context.Context, rawURL string) (domain.Result, error)
}

type SummarizeRequest struct {
	URL string `json:"url"` // The article URL
}

type SummarizeResponse struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Markdown string `json:"markdown"`
	Chunks   int    `json:"chunks"`
}

// NewServer creates an MCP server exposing the summarize_article tool.
func NewServer(svc Summarizer, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"newsbrief",
		Version,
		server.WithToolCapabilities(false),
	)

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Fetch a news article and return an abstractive summary of it"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The http(s) URL of the news article"),
		),
	)

	s.AddTool(tool, mcp.NewTypedToolHandler(summarizeHandler(svc, log)))

	return s
}

// NewHTTPHandler serves s over the streamable HTTP transport at EndpointPath.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s, server.WithEndpointPath(EndpointPath))
}

func summarizeHandler(
	svc Summarizer,
	log *slog.Logger,
) func(ctx context.Context, request mcp.CallToolRequest, args SummarizeRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest, args SummarizeRequest) (*mcp.CallToolResult, error) {
		result, err := svc.Summarize(ctx, args.URL)
		if err != nil {
			if !domain.IsKind(err, domain.KindValidation) {
				log.ErrorContext(ctx, "Failed to summarize article",
					"error", err,
					"url", args.URL,
					"kind", domain.KindOf(err))
			}

			return mcp.NewToolResultError(domain.UserMessage(err)), nil
		}

		responseBytes, err := json.Marshal(SummarizeResponse{
			URL:      result.Article.URL,
			Title:    result.Article.Title,
			Summary:  result.Summary,
			Markdown: result.Article.Markdown,
			Chunks:   result.Chunks,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}

		return mcp.NewToolResultText(string(responseBytes)), nil
	}
}
