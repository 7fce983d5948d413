package traverse

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/codegraph/internal/model"
)

// fakeReader is a minimal in-memory EdgeReader for traversal tests, built
// from explicit edge lists rather than a real store.
type fakeReader struct {
	nodes map[string]model.Node
	out   map[string][]model.Edge
	in    map[string][]model.Edge
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		nodes: map[string]model.Node{},
		out:   map[string][]model.Edge{},
		in:    map[string][]model.Edge{},
	}
}

func (f *fakeReader) addNode(n model.Node) { f.nodes[n.ID] = n }

func (f *fakeReader) addEdge(e model.Edge) {
	f.out[e.Source] = append(f.out[e.Source], e)
	f.in[e.Target] = append(f.in[e.Target], e)
}

func (f *fakeReader) GetNodeByID(id string) (model.Node, error) {
	n, ok := f.nodes[id]
	if !ok {
		return model.Node{}, model.ErrNodeNotFound
	}
	return n, nil
}

func (f *fakeReader) GetOutgoingEdges(nodeID string, kinds []model.EdgeKind) ([]model.Edge, error) {
	return filterEdges(f.out[nodeID], kinds), nil
}

func (f *fakeReader) GetIncomingEdges(nodeID string, kinds []model.EdgeKind) ([]model.Edge, error) {
	return filterEdges(f.in[nodeID], kinds), nil
}

func filterEdges(edges []model.Edge, kinds []model.EdgeKind) []model.Edge {
	if len(kinds) == 0 {
		return edges
	}
	var out []model.Edge
	for _, e := range edges {
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// chainReader builds a -> b -> c -> d, all Calls edges.
func chainReader() *fakeReader {
	r := newFakeReader()
	for _, id := range []string{"a", "b", "c", "d"} {
		r.addNode(model.Node{ID: id, Kind: model.NodeFunction, Name: id})
	}
	r.addEdge(model.Edge{Source: "a", Target: "b", Kind: model.EdgeCalls})
	r.addEdge(model.Edge{Source: "b", Target: "c", Kind: model.EdgeCalls})
	r.addEdge(model.Edge{Source: "c", Target: "d", Kind: model.EdgeCalls})
	return r
}

func nodeIDs(nodes []model.Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	sort.Strings(ids)
	return ids
}

func TestTraverseBFS_RespectsMaxDepth(t *testing.T) {
	tr := New(chainReader())

	sub, err := tr.TraverseBFS("a", model.TraversalOptions{
		MaxDepth: 2, Direction: model.DirOutgoing, Limit: 100, IncludeStart: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, nodeIDs(sub.Nodes))
}

func TestTraverseDFS_RespectsMaxDepth(t *testing.T) {
	tr := New(chainReader())

	sub, err := tr.TraverseDFS("a", model.TraversalOptions{
		MaxDepth: 2, Direction: model.DirOutgoing, Limit: 100, IncludeStart: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, nodeIDs(sub.Nodes))
}

func TestTraverseBFS_AndDFS_AgreeOnReachableSet(t *testing.T) {
	bfs, err := New(chainReader()).TraverseBFS("a", model.TraversalOptions{
		MaxDepth: 10, Direction: model.DirOutgoing, Limit: 100, IncludeStart: true,
	})
	require.NoError(t, err)
	dfs, err := New(chainReader()).TraverseDFS("a", model.TraversalOptions{
		MaxDepth: 10, Direction: model.DirOutgoing, Limit: 100, IncludeStart: true,
	})
	require.NoError(t, err)

	// Node/edge order legitimately differs between BFS and DFS; compare the
	// reachable sets ignoring order rather than the raw slices.
	diff := cmp.Diff(nodeIDs(bfs.Nodes), nodeIDs(dfs.Nodes), cmpopts.EquateEmpty())
	assert.Empty(t, diff)
}

func TestTraverseBFS_UnknownStart_ReturnsEmptySubgraph(t *testing.T) {
	tr := New(newFakeReader())
	sub, err := tr.TraverseBFS("missing", model.DefaultTraversalOptions())
	require.NoError(t, err)
	assert.Empty(t, sub.Nodes)
}

func TestGetCallers_FollowsIncomingCallsEdges(t *testing.T) {
	tr := New(chainReader())
	pairs, err := tr.GetCallers("c", 10)
	require.NoError(t, err)
	var ids []string
	for _, p := range pairs {
		ids = append(ids, p.Node.ID)
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestFindPath_ShortestPathThroughChain(t *testing.T) {
	tr := New(chainReader())
	steps, err := tr.FindPath("a", "d", []model.EdgeKind{model.EdgeCalls})
	require.NoError(t, err)
	require.Len(t, steps, 4)
	assert.Equal(t, "a", steps[0].Node.ID)
	assert.Equal(t, "d", steps[len(steps)-1].Node.ID)
}

func TestFindPath_NoPath_ReturnsNil(t *testing.T) {
	r := newFakeReader()
	r.addNode(model.Node{ID: "x"})
	r.addNode(model.Node{ID: "y"})
	tr := New(r)
	steps, err := tr.FindPath("x", "y", nil)
	require.NoError(t, err)
	assert.Nil(t, steps)
}

func TestVisitedSet_AddContainsRemove(t *testing.T) {
	v := NewVisitedSet()
	assert.False(t, v.Contains("a"))
	v.Add("a")
	assert.True(t, v.Contains("a"))
	v.Remove("a")
	assert.False(t, v.Contains("a"))
}
