// Package mcpserver exposes the code graph's query surface as MCP tools
// over stdio, grounded on the mark3labs/mcp-go usage in the pack's
// quaero-mcp command (server.NewMCPServer/AddTool/ServeStdio,
// mcp.NewTool/WithString/WithNumber, ToolHandlerFunc returning
// mcp.CallToolResult with text content).
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ternarybob/codegraph/internal/model"
	"github.com/ternarybob/codegraph/internal/traverse"
)

// Engine is the subset of *internal/codegraph.CodeGraph the MCP tools call
// into.
type Engine interface {
	Search(query string, limit int) ([]model.SearchResult, error)
	GetNode(id string) (model.Node, error)
	GetCallers(nodeID string, maxDepth uint32) ([]traverse.CallerPair, error)
	GetCallees(nodeID string, maxDepth uint32) ([]traverse.CallerPair, error)
	GetImpactRadius(nodeID string, maxDepth uint32) (model.Subgraph, error)
	BuildContext(task string, opts model.BuildContextOptions) (model.TaskContext, error)
}

// New builds an MCP server exposing search_nodes, get_node, get_callers,
// get_callees, get_impact_radius, and build_context as tools.
func New(engine Engine, version string) *server.MCPServer {
	s := server.NewMCPServer("codegraph", version, server.WithToolCapabilities(true))

	s.AddTool(searchNodesTool(), handleSearchNodes(engine))
	s.AddTool(getNodeTool(), handleGetNode(engine))
	s.AddTool(getCallersTool(), handleGetCallers(engine))
	s.AddTool(getCalleesTool(), handleGetCallees(engine))
	s.AddTool(getImpactRadiusTool(), handleGetImpactRadius(engine))
	s.AddTool(buildContextTool(), handleBuildContext(engine))

	return s
}

// Serve blocks, serving engine's tools over stdio.
func Serve(engine Engine, version string) error {
	return server.ServeStdio(New(engine, version))
}

func searchNodesTool() mcp.Tool {
	return mcp.NewTool("search_nodes",
		mcp.WithDescription("Full-text search over indexed code entities"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return (default: 20)")),
	)
}

func handleSearchNodes(engine Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return errorResult("query parameter is required"), nil
		}
		limit := request.GetInt("limit", 20)

		results, err := engine.Search(query, limit)
		if err != nil {
			return errorResult(fmt.Sprintf("search error: %v", err)), nil
		}
		return textResult(formatSearchResults(results)), nil
	}
}

func getNodeTool() mcp.Tool {
	return mcp.NewTool("get_node",
		mcp.WithDescription("Retrieve a single code entity by its ID"),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID")),
	)
}

func handleGetNode(engine Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("node_id")
		if err != nil || id == "" {
			return errorResult("node_id parameter is required"), nil
		}
		node, err := engine.GetNode(id)
		if err != nil {
			return errorResult(fmt.Sprintf("node not found: %v", err)), nil
		}
		return textResult(formatNode(node)), nil
	}
}

func getCallersTool() mcp.Tool {
	return mcp.NewTool("get_callers",
		mcp.WithDescription("Find nodes that transitively call the given node"),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID")),
		mcp.WithNumber("max_depth", mcp.Description("Traversal depth (default: 3)")),
	)
}

func handleGetCallers(engine Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("node_id")
		if err != nil || id == "" {
			return errorResult("node_id parameter is required"), nil
		}
		depth := request.GetInt("max_depth", 3)
		pairs, err := engine.GetCallers(id, uint32(depth))
		if err != nil {
			return errorResult(fmt.Sprintf("get_callers error: %v", err)), nil
		}
		return textResult(formatCallerPairs("Callers", pairs)), nil
	}
}

func getCalleesTool() mcp.Tool {
	return mcp.NewTool("get_callees",
		mcp.WithDescription("Find nodes that the given node transitively calls"),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID")),
		mcp.WithNumber("max_depth", mcp.Description("Traversal depth (default: 3)")),
	)
}

func handleGetCallees(engine Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("node_id")
		if err != nil || id == "" {
			return errorResult("node_id parameter is required"), nil
		}
		depth := request.GetInt("max_depth", 3)
		pairs, err := engine.GetCallees(id, uint32(depth))
		if err != nil {
			return errorResult(fmt.Sprintf("get_callees error: %v", err)), nil
		}
		return textResult(formatCallerPairs("Callees", pairs)), nil
	}
}

func getImpactRadiusTool() mcp.Tool {
	return mcp.NewTool("get_impact_radius",
		mcp.WithDescription("Compute every node that directly or indirectly depends on the given node"),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID")),
		mcp.WithNumber("max_depth", mcp.Description("Traversal depth (default: 5)")),
	)
}

func handleGetImpactRadius(engine Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("node_id")
		if err != nil || id == "" {
			return errorResult("node_id parameter is required"), nil
		}
		depth := request.GetInt("max_depth", 5)
		sub, err := engine.GetImpactRadius(id, uint32(depth))
		if err != nil {
			return errorResult(fmt.Sprintf("get_impact_radius error: %v", err)), nil
		}
		return textResult(formatSubgraph(sub)), nil
	}
}

func buildContextTool() mcp.Tool {
	return mcp.NewTool("build_context",
		mcp.WithDescription("Assemble an LLM-ready context pack for a free-text task description"),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task description")),
		mcp.WithNumber("max_nodes", mcp.Description("Maximum entry-point nodes (default: 20)")),
		mcp.WithBoolean("include_code", mcp.Description("Include source snippets (default: true)")),
	)
}

func handleBuildContext(engine Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task, err := request.RequireString("task")
		if err != nil || task == "" {
			return errorResult("task parameter is required"), nil
		}
		opts := model.DefaultBuildContextOptions()
		opts.MaxNodes = request.GetInt("max_nodes", opts.MaxNodes)
		opts.IncludeCode = request.GetBool("include_code", opts.IncludeCode)

		taskContext, err := engine.BuildContext(task, opts)
		if err != nil {
			return errorResult(fmt.Sprintf("build_context error: %v", err)), nil
		}
		return textResult(formatTaskContext(taskContext)), nil
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent("Error: " + message)}}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(text)}}
}

func formatSearchResults(results []model.SearchResult) string {
	if len(results) == 0 {
		return "No matching nodes found."
	}
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s `%s` (%s:%d) score=%.3f\n", r.Node.Kind, r.Node.QualifiedName, r.Node.FilePath, r.Node.StartLine, r.Score)
	}
	return b.String()
}

func formatNode(n model.Node) string {
	return fmt.Sprintf("%s `%s`\nfile: %s:%d-%d\nvisibility: %s\nsignature: %s",
		n.Kind, n.QualifiedName, n.FilePath, n.StartLine, n.EndLine, n.Visibility, n.Signature)
}

func formatCallerPairs(label string, pairs []traverse.CallerPair) string {
	if len(pairs) == 0 {
		return label + ": none found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n", label, len(pairs))
	for _, p := range pairs {
		fmt.Fprintf(&b, "- %s `%s` (%s:%d)\n", p.Node.Kind, p.Node.QualifiedName, p.Node.FilePath, p.Node.StartLine)
	}
	return b.String()
}

func formatSubgraph(sub model.Subgraph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d node(s), %d edge(s)\n", len(sub.Nodes), len(sub.Edges))
	for _, n := range sub.Nodes {
		fmt.Fprintf(&b, "- %s `%s` (%s:%d)\n", n.Kind, n.QualifiedName, n.FilePath, n.StartLine)
	}
	return b.String()
}

func formatTaskContext(tc model.TaskContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", tc.Summary)
	for _, n := range tc.EntryPoints {
		fmt.Fprintf(&b, "Entry point: %s `%s` (%s:%d)\n", n.Kind, n.QualifiedName, n.FilePath, n.StartLine)
	}
	for _, block := range tc.CodeBlocks {
		fmt.Fprintf(&b, "\n--- %s:%d-%d ---\n%s\n", block.FilePath, block.StartLine, block.EndLine, block.Content)
	}
	return b.String()
}
