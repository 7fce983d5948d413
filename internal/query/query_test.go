package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/codegraph/internal/model"
)

// fakeReader is a minimal in-memory Reader built from explicit node/edge/file
// lists, mirroring internal/traverse's fakeReader test helper.
type fakeReader struct {
	nodes map[string]model.Node
	edges []model.Edge
	files []model.FileRecord
}

func newFakeReader() *fakeReader {
	return &fakeReader{nodes: map[string]model.Node{}}
}

func (f *fakeReader) addNode(n model.Node) *fakeReader {
	f.nodes[n.ID] = n
	return f
}

func (f *fakeReader) addEdge(e model.Edge) *fakeReader {
	f.edges = append(f.edges, e)
	return f
}

func (f *fakeReader) addFile(path string) *fakeReader {
	f.files = append(f.files, model.FileRecord{Path: path})
	return f
}

func (f *fakeReader) GetAllNodes() ([]model.Node, error) {
	var out []model.Node
	for _, n := range f.nodes {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeReader) GetNodeByID(id string) (model.Node, error) {
	n, ok := f.nodes[id]
	if !ok {
		return model.Node{}, model.ErrNodeNotFound
	}
	return n, nil
}

func (f *fakeReader) GetIncomingEdges(nodeID string, kinds []model.EdgeKind) ([]model.Edge, error) {
	return filterEdges(f.edges, func(e model.Edge) bool { return e.Target == nodeID }, kinds), nil
}

func (f *fakeReader) GetOutgoingEdges(nodeID string, kinds []model.EdgeKind) ([]model.Edge, error) {
	return filterEdges(f.edges, func(e model.Edge) bool { return e.Source == nodeID }, kinds), nil
}

func (f *fakeReader) GetNodesByFile(filePath string) ([]model.Node, error) {
	var out []model.Node
	for _, n := range f.nodes {
		if n.FilePath == filePath {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeReader) GetAllFiles() ([]model.FileRecord, error) {
	return f.files, nil
}

func filterEdges(edges []model.Edge, endpoint func(model.Edge) bool, kinds []model.EdgeKind) []model.Edge {
	var out []model.Edge
	for _, e := range edges {
		if !endpoint(e) {
			continue
		}
		if len(kinds) == 0 {
			out = append(out, e)
			continue
		}
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func fn(id, name, file string, vis model.Visibility) model.Node {
	return model.Node{ID: id, Kind: model.NodeFunction, Name: name, QualifiedName: name, FilePath: file, Visibility: vis}
}

func node(id string, kind model.NodeKind, name, file string, vis model.Visibility) model.Node {
	return model.Node{ID: id, Kind: kind, Name: name, QualifiedName: name, FilePath: file, Visibility: vis}
}

func TestFindDeadCode_ExcludesEntryPointsTestsAndPublicSymbols(t *testing.T) {
	r := newFakeReader().
		addNode(fn("function:unused", "unused", "a.go", model.VisibilityPrivate)).
		addNode(fn("function:main", "main", "a.go", model.VisibilityPrivate)).
		addNode(fn("function:testFoo", "testFoo", "a.go", model.VisibilityPrivate)).
		addNode(fn("function:pub", "Pub", "a.go", model.VisibilityPub)).
		addNode(fn("function:used", "used", "a.go", model.VisibilityPrivate)).
		addNode(fn("function:caller", "caller", "a.go", model.VisibilityPrivate)).
		addEdge(model.Edge{Source: "function:caller", Target: "function:used", Kind: model.EdgeCalls})

	m := New(r)
	dead, err := m.FindDeadCode(nil)
	require.NoError(t, err)

	var names []string
	for _, n := range dead {
		names = append(names, n.Name)
	}
	assert.ElementsMatch(t, []string{"unused", "caller"}, names)
}

func TestFindDeadCode_IncludesNonCallableKinds(t *testing.T) {
	r := newFakeReader().
		addNode(node("struct:unused", model.NodeStruct, "Unused", "a.go", model.VisibilityPrivate)).
		addNode(node("field:unused", model.NodeField, "unused", "a.go", model.VisibilityPrivate))

	m := New(r)
	dead, err := m.FindDeadCode(nil)
	require.NoError(t, err)

	var names []string
	for _, n := range dead {
		names = append(names, n.Name)
	}
	assert.ElementsMatch(t, []string{"Unused", "unused"}, names)
}

func TestFindDeadCode_KindsFilterRestrictsCandidates(t *testing.T) {
	r := newFakeReader().
		addNode(node("struct:unused", model.NodeStruct, "Unused", "a.go", model.VisibilityPrivate)).
		addNode(fn("function:unused", "unused", "a.go", model.VisibilityPrivate))

	m := New(r)
	dead, err := m.FindDeadCode([]model.NodeKind{model.NodeStruct})
	require.NoError(t, err)

	require.Len(t, dead, 1)
	assert.Equal(t, "Unused", dead[0].Name)
}

func TestGetNodeMetrics_CountsCallsAndContains(t *testing.T) {
	r := newFakeReader().
		addNode(fn("function:a", "a", "x.go", model.VisibilityPrivate)).
		addNode(fn("function:b", "b", "x.go", model.VisibilityPrivate)).
		addNode(fn("function:c", "c", "x.go", model.VisibilityPrivate)).
		addEdge(model.Edge{Source: "function:a", Target: "function:b", Kind: model.EdgeCalls}).
		addEdge(model.Edge{Source: "function:a", Target: "function:c", Kind: model.EdgeContains}).
		addEdge(model.Edge{Source: "function:z", Target: "function:a", Kind: model.EdgeCalls})

	m := New(r)
	metrics, err := m.GetNodeMetrics("function:a")
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.CallCount)
	assert.Equal(t, 1, metrics.ChildCount)
	assert.Equal(t, 1, metrics.CallerCount)
	assert.Equal(t, 2, metrics.OutgoingEdgeCount)
	assert.Equal(t, 1, metrics.IncomingEdgeCount)
}

func TestGetNodeMetrics_DepthReflectsContainmentChain(t *testing.T) {
	r := newFakeReader().
		addNode(fn("function:file", "file", "x.go", model.VisibilityPrivate)).
		addNode(fn("function:pkg", "pkg", "x.go", model.VisibilityPrivate)).
		addNode(fn("function:leaf", "leaf", "x.go", model.VisibilityPrivate)).
		addEdge(model.Edge{Source: "function:file", Target: "function:pkg", Kind: model.EdgeContains}).
		addEdge(model.Edge{Source: "function:pkg", Target: "function:leaf", Kind: model.EdgeContains})

	m := New(r)
	metrics, err := m.GetNodeMetrics("function:leaf")
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.Depth)
}

func TestGetFileDependencies_AndDependents_AreInverses(t *testing.T) {
	r := newFakeReader().
		addNode(fn("function:a", "a", "a.go", model.VisibilityPrivate)).
		addNode(fn("function:b", "b", "b.go", model.VisibilityPrivate)).
		addEdge(model.Edge{Source: "function:a", Target: "function:b", Kind: model.EdgeCalls})

	m := New(r)
	deps, err := m.GetFileDependencies("a.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.go"}, deps)

	dependents, err := m.GetFileDependents("b.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, dependents)
}

func TestFindCircularDependencies_DetectsTwoFileCycle(t *testing.T) {
	r := newFakeReader().
		addNode(fn("function:a", "a", "a.go", model.VisibilityPrivate)).
		addNode(fn("function:b", "b", "b.go", model.VisibilityPrivate)).
		addEdge(model.Edge{Source: "function:a", Target: "function:b", Kind: model.EdgeUses}).
		addEdge(model.Edge{Source: "function:b", Target: "function:a", Kind: model.EdgeUses}).
		addFile("a.go").
		addFile("b.go")

	m := New(r)
	cycles, err := m.FindCircularDependencies()
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Contains(t, cycles[0], "a.go")
	assert.Contains(t, cycles[0], "b.go")
}

func TestFindCircularDependencies_NoCycle_ReturnsEmpty(t *testing.T) {
	r := newFakeReader().
		addNode(fn("function:a", "a", "a.go", model.VisibilityPrivate)).
		addNode(fn("function:b", "b", "b.go", model.VisibilityPrivate)).
		addEdge(model.Edge{Source: "function:a", Target: "function:b", Kind: model.EdgeUses}).
		addFile("a.go").
		addFile("b.go")

	m := New(r)
	cycles, err := m.FindCircularDependencies()
	require.NoError(t, err)
	assert.Empty(t, cycles)
}
