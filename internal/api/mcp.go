package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/chat"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/knowledge"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/tool"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/llm"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/version"
)

// MCPPipeline is the slice of the chat pipeline the MCP layer needs.
// *chat.Pipeline satisfies it.
type MCPPipeline interface {
	Run(ctx context.Context, query string, prior []chat.Turn) (*chat.Result, error)
}

// MCPEmbedder produces query embeddings for the search_docs tool.
type MCPEmbedder interface {
	Embed(ctx context.Context, req llm.EmbedRequest) (*llm.EmbedResponse, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Registry *tool.Registry
	Pipeline MCPPipeline
	Index    *knowledge.Index
	Embedder MCPEmbedder // optional; if nil, search_docs returns an error
	KBDir    string      // knowledge base directory, for kb://document/{name}
}

// NewMCPServer creates an MCP server exposing the dataset tools, the full
// chat pipeline, and the knowledge base as a resource.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"hrnexus",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("HRNexus — HR assistant over organizational datasets, documentation, and web search."),
		server.WithRecovery(),
	)

	// One tool per registered dataset. All share the key/value/operator
	// parameter schema.
	for _, spec := range deps.Registry.Specs() {
		s.AddTool(
			mcp.NewTool(spec.Name,
				mcp.WithDescription(spec.Description),
				mcp.WithString("key", mcp.Description("Record field to filter on"), mcp.Required()),
				mcp.WithString("value", mcp.Description("Value to compare against"), mcp.Required()),
				mcp.WithString("operator", mcp.Description("One of: equals, contains, greater_than, less_than, greater_equal, less_equal (default equals)")),
			),
			mcpDatasetSearch(deps.Registry, spec.Name),
		)
	}

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Ask the full HRNexus pipeline a question: intent is classified and routed to conversation, documentation retrieval, dataset query, or web search."),
			mcp.WithString("query", mcp.Description("The question to ask"), mcp.Required()),
		),
		mcpAsk(deps),
	)

	s.AddTool(
		mcp.NewTool("search_docs",
			mcp.WithDescription("Semantically search the internal documentation index and return the most relevant chunks."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of chunks (default 3)")),
		),
		mcpSearchDocs(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"kb://sources",
			"Knowledge Base Sources",
			mcp.WithResourceDescription("Indexed documentation sources as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceSources(deps),
	)

	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"kb://document/{name}",
			"Knowledge Base Document",
			mcp.WithTemplateDescription("Raw markdown for one knowledge base document"),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		mcpResourceDocument(deps),
	)

	return s
}

func mcpDatasetSearch(registry *tool.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcpError("value is required"), nil
		}

		op, err := tool.ParseOperator(req.GetString("operator", "equals"))
		if err != nil {
			return mcpError(fmt.Sprintf("invalid operator: %v", err)), nil
		}

		executor, err := registry.Get(name)
		if err != nil {
			return mcpError(fmt.Sprintf("tool lookup failed: %v", err)), nil
		}
		records, err := executor.Execute(ctx, key, value, op)
		if err != nil {
			return mcpError(fmt.Sprintf("query failed: %v", err)), nil
		}
		if len(records) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(records)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal records: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		result, err := deps.Pipeline.Run(ctx, query, nil)
		if err != nil {
			return mcpError(fmt.Sprintf("pipeline failed: %v", err)), nil
		}

		b, err := json.Marshal(map[string]any{
			"intent":   string(result.Intent),
			"response": result.Response,
			"degraded": result.Degraded,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSearchDocs(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Embedder == nil {
			return mcpError("documentation search not available: no embedding model configured"), nil
		}
		if !deps.Index.Available() {
			return mcpError("documentation index has not been built yet"), nil
		}

		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}
		limit := req.GetInt("limit", knowledge.DefaultTopK)
		if limit <= 0 {
			limit = knowledge.DefaultTopK
		}
		if limit > 20 {
			limit = 20
		}

		embedded, err := deps.Embedder.Embed(ctx, llm.EmbedRequest{Texts: []string{query}})
		if err != nil {
			return mcpError(fmt.Sprintf("embedding failed: %v", err)), nil
		}
		if len(embedded.Embeddings) != 1 {
			return mcpError("embedding response shape mismatch"), nil
		}

		hits := deps.Index.Search(embedded.Embeddings[0], limit)
		type chunkResult struct {
			Source   string  `json:"source"`
			Position int     `json:"position"`
			Text     string  `json:"text"`
			Score    float32 `json:"score"`
		}
		results := make([]chunkResult, len(hits))
		for i, h := range hits {
			results[i] = chunkResult{
				Source:   h.Chunk.Source,
				Position: h.Chunk.Position,
				Text:     h.Chunk.Text,
				Score:    h.Score,
			}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceSources(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(map[string]any{
			"available": deps.Index.Available(),
			"chunks":    deps.Index.Len(),
			"sources":   deps.Index.Sources(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal sources: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

// mcpResourceDocument serves the raw text of one knowledge base document.
// The {name} segment is a source name as reported by kb://sources, without
// extension.
func mcpResourceDocument(deps MCPDeps) server.ResourceTemplateHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		name := strings.TrimPrefix(req.Params.URI, "kb://document/")
		if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
			return nil, fmt.Errorf("invalid document name %q", name)
		}

		for _, ext := range []string{".md", ".txt"} {
			raw, err := os.ReadFile(filepath.Join(deps.KBDir, name+ext))
			if err != nil {
				continue
			}
			mime := "text/markdown"
			if ext == ".txt" {
				mime = "text/plain"
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      req.Params.URI,
					MIMEType: mime,
					Text:     string(raw),
				},
			}, nil
		}
		return nil, fmt.Errorf("document %q not found", name)
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
