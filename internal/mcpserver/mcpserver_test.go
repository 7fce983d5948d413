package mcpserver

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/codegraph/internal/model"
	"github.com/ternarybob/codegraph/internal/traverse"
)

// fakeEngine is a minimal in-memory implementation of Engine for exercising
// tool handlers without a real store.
type fakeEngine struct {
	searchResults []model.SearchResult
	searchErr     error
	node          model.Node
	nodeErr       error
	callers       []traverse.CallerPair
	callersErr    error
	callees       []traverse.CallerPair
	calleesErr    error
	impact        model.Subgraph
	impactErr     error
	taskContext   model.TaskContext
	contextErr    error

	lastLimit    int
	lastMaxDepth uint32
	lastOpts     model.BuildContextOptions
}

func (f *fakeEngine) Search(query string, limit int) ([]model.SearchResult, error) {
	f.lastLimit = limit
	return f.searchResults, f.searchErr
}

func (f *fakeEngine) GetNode(id string) (model.Node, error) {
	return f.node, f.nodeErr
}

func (f *fakeEngine) GetCallers(nodeID string, maxDepth uint32) ([]traverse.CallerPair, error) {
	f.lastMaxDepth = maxDepth
	return f.callers, f.callersErr
}

func (f *fakeEngine) GetCallees(nodeID string, maxDepth uint32) ([]traverse.CallerPair, error) {
	f.lastMaxDepth = maxDepth
	return f.callees, f.calleesErr
}

func (f *fakeEngine) GetImpactRadius(nodeID string, maxDepth uint32) (model.Subgraph, error) {
	return f.impact, f.impactErr
}

func (f *fakeEngine) BuildContext(task string, opts model.BuildContextOptions) (model.TaskContext, error) {
	f.lastOpts = opts
	return f.taskContext, f.contextErr
}

func callToolRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", res.Content[0])
	return tc.Text
}

func TestHandleSearchNodes_ReturnsFormattedResults(t *testing.T) {
	engine := &fakeEngine{searchResults: []model.SearchResult{
		{Node: model.Node{Kind: model.NodeFunction, QualifiedName: "pkg::Foo", FilePath: "a.go", StartLine: 3}, Score: 0.9},
	}}
	handler := handleSearchNodes(engine)

	res, err := handler(context.Background(), callToolRequest(map[string]any{"query": "Foo", "limit": float64(5)}))
	require.NoError(t, err)
	assert.Equal(t, 5, engine.lastLimit)
	assert.Contains(t, resultText(t, res), "pkg::Foo")
}

func TestHandleSearchNodes_MissingQuery_ReturnsErrorResult(t *testing.T) {
	engine := &fakeEngine{}
	handler := handleSearchNodes(engine)

	res, err := handler(context.Background(), callToolRequest(map[string]any{}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "query parameter is required")
}

func TestHandleGetNode_ReturnsFormattedNode(t *testing.T) {
	engine := &fakeEngine{node: model.Node{
		Kind: model.NodeStruct, QualifiedName: "pkg::Greeter", FilePath: "a.go",
		StartLine: 1, EndLine: 10, Visibility: model.VisibilityPub, Signature: "struct Greeter",
	}}
	handler := handleGetNode(engine)

	res, err := handler(context.Background(), callToolRequest(map[string]any{"node_id": "struct:abc"}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "pkg::Greeter")
	assert.Contains(t, text, "struct Greeter")
}

func TestHandleGetNode_NotFound_ReturnsErrorResult(t *testing.T) {
	engine := &fakeEngine{nodeErr: model.ErrNodeNotFound}
	handler := handleGetNode(engine)

	res, err := handler(context.Background(), callToolRequest(map[string]any{"node_id": "missing"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "node not found")
}

func TestHandleGetCallers_UsesDefaultDepthWhenOmitted(t *testing.T) {
	engine := &fakeEngine{callers: []traverse.CallerPair{
		{Node: model.Node{Kind: model.NodeFunction, QualifiedName: "pkg::Caller", FilePath: "a.go", StartLine: 7}},
	}}
	handler := handleGetCallers(engine)

	res, err := handler(context.Background(), callToolRequest(map[string]any{"node_id": "function:x"}))
	require.NoError(t, err)
	assert.EqualValues(t, 3, engine.lastMaxDepth)
	assert.Contains(t, resultText(t, res), "pkg::Caller")
}

func TestHandleGetCallees_NoResults_ReportsNoneFound(t *testing.T) {
	engine := &fakeEngine{}
	handler := handleGetCallees(engine)

	res, err := handler(context.Background(), callToolRequest(map[string]any{"node_id": "function:x", "max_depth": float64(2)}))
	require.NoError(t, err)
	assert.EqualValues(t, 2, engine.lastMaxDepth)
	assert.Contains(t, resultText(t, res), "none found")
}

func TestHandleGetImpactRadius_FormatsSubgraph(t *testing.T) {
	engine := &fakeEngine{impact: model.Subgraph{
		Nodes: []model.Node{{Kind: model.NodeFunction, QualifiedName: "pkg::A", FilePath: "a.go", StartLine: 1}},
		Edges: []model.Edge{{Source: "function:a", Target: "function:b", Kind: model.EdgeCalls}},
	}}
	handler := handleGetImpactRadius(engine)

	res, err := handler(context.Background(), callToolRequest(map[string]any{"node_id": "function:a"}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "1 node(s), 1 edge(s)")
	assert.Contains(t, text, "pkg::A")
}

func TestHandleBuildContext_PassesOptionsAndFormatsOutput(t *testing.T) {
	engine := &fakeEngine{taskContext: model.TaskContext{
		Summary:     "Investigate login flow",
		EntryPoints: []model.Node{{Kind: model.NodeFunction, QualifiedName: "pkg::Login", FilePath: "a.go", StartLine: 1}},
	}}
	handler := handleBuildContext(engine)

	res, err := handler(context.Background(), callToolRequest(map[string]any{
		"task": "fix login bug", "max_nodes": float64(5), "include_code": false,
	}))
	require.NoError(t, err)
	assert.Equal(t, 5, engine.lastOpts.MaxNodes)
	assert.False(t, engine.lastOpts.IncludeCode)
	text := resultText(t, res)
	assert.Contains(t, text, "Investigate login flow")
	assert.Contains(t, text, "pkg::Login")
}

func TestHandleBuildContext_MissingTask_ReturnsErrorResult(t *testing.T) {
	engine := &fakeEngine{}
	handler := handleBuildContext(engine)

	res, err := handler(context.Background(), callToolRequest(map[string]any{}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "task parameter is required")
}

func TestNew_ReturnsServer(t *testing.T) {
	srv := New(&fakeEngine{}, "test")
	assert.NotNil(t, srv)
}
