// Package query implements the analytical query surface over the code
// graph: dead-code detection, per-node connectivity metrics, file
// dependency/dependent lookup, and circular-dependency detection. Grounded
// on the original implementation's src/graph/queries.rs.
package query

import (
	"sort"
	"strings"

	"github.com/ternarybob/codegraph/internal/model"
	"github.com/ternarybob/codegraph/internal/traverse"
)

// Reader is the minimal store surface the query manager needs. Satisfied
// by *internal/store.Store.
type Reader interface {
	GetAllNodes() ([]model.Node, error)
	GetNodeByID(id string) (model.Node, error)
	GetIncomingEdges(nodeID string, kinds []model.EdgeKind) ([]model.Edge, error)
	GetOutgoingEdges(nodeID string, kinds []model.EdgeKind) ([]model.Edge, error)
	GetNodesByFile(filePath string) ([]model.Node, error)
	GetAllFiles() ([]model.FileRecord, error)
}

// Manager answers analytical queries over the graph (queries.rs's
// GraphQueryManager).
type Manager struct {
	reader Reader
}

// New returns a Manager backed by reader.
func New(reader Reader) *Manager {
	return &Manager{reader: reader}
}

// FindDeadCode returns nodes with no incoming edges at all, excluding the
// conventional entry point "main", test-prefixed names, and anything with
// Pub visibility (an exported symbol may be used by code outside the
// indexed project). If kinds is non-empty, candidates are restricted to
// those node kinds; an empty kinds filters nothing, matching the original
// implementation's find_dead_code(&self, kinds: &[NodeKind]).
func (m *Manager) FindDeadCode(kinds []model.NodeKind) ([]model.Node, error) {
	nodes, err := m.reader.GetAllNodes()
	if err != nil {
		return nil, err
	}
	var dead []model.Node
	for _, n := range nodes {
		if len(kinds) > 0 && !containsKind(kinds, n.Kind) {
			continue
		}
		if n.Name == "main" {
			continue
		}
		if strings.HasPrefix(n.Name, "test") {
			continue
		}
		if n.Visibility == model.VisibilityPub {
			continue
		}
		incoming, err := m.reader.GetIncomingEdges(n.ID, nil)
		if err != nil {
			return nil, err
		}
		if len(incoming) == 0 {
			dead = append(dead, n)
		}
	}
	return dead, nil
}

func containsKind(kinds []model.NodeKind, k model.NodeKind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

// GetNodeMetrics computes connectivity metrics for a single node: incoming
// and outgoing edge counts, the subset of outgoing edges that are Calls
// (callees) and incoming that are Calls (callers), how many nodes it
// directly Contains, and its containment depth.
func (m *Manager) GetNodeMetrics(nodeID string) (model.NodeMetrics, error) {
	incoming, err := m.reader.GetIncomingEdges(nodeID, nil)
	if err != nil {
		return model.NodeMetrics{}, err
	}
	outgoing, err := m.reader.GetOutgoingEdges(nodeID, nil)
	if err != nil {
		return model.NodeMetrics{}, err
	}

	var callCount, callerCount, childCount int
	for _, e := range outgoing {
		if e.Kind == model.EdgeCalls {
			callCount++
		}
		if e.Kind == model.EdgeContains {
			childCount++
		}
	}
	for _, e := range incoming {
		if e.Kind == model.EdgeCalls {
			callerCount++
		}
	}

	depth, err := m.computeDepth(nodeID)
	if err != nil {
		return model.NodeMetrics{}, err
	}

	return model.NodeMetrics{
		IncomingEdgeCount: len(incoming),
		OutgoingEdgeCount: len(outgoing),
		CallCount:         callCount,
		CallerCount:       callerCount,
		ChildCount:        childCount,
		Depth:             depth,
	}, nil
}

// computeDepth walks incoming Contains edges upward (this node's
// container, its container's container, ...) until none remain, guarding
// against cycles with a visited set.
func (m *Manager) computeDepth(nodeID string) (int, error) {
	visited := traverse.NewVisitedSet()
	visited.Add(nodeID)
	depth := 0
	current := nodeID
	for {
		incoming, err := m.reader.GetIncomingEdges(current, []model.EdgeKind{model.EdgeContains})
		if err != nil {
			return 0, err
		}
		if len(incoming) == 0 {
			return depth, nil
		}
		parent := incoming[0].Source
		if visited.Contains(parent) {
			return depth, nil
		}
		visited.Add(parent)
		depth++
		current = parent
	}
}

// GetFileDependencies returns the set of files that filePath depends on:
// the file_path of every node reached by an outgoing Uses or Calls edge
// from one of filePath's own nodes, deduplicated, sorted, excluding
// filePath itself.
func (m *Manager) GetFileDependencies(filePath string) ([]string, error) {
	nodes, err := m.reader.GetNodesByFile(filePath)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{filePath: true}
	var deps []string
	for _, n := range nodes {
		edges, err := m.reader.GetOutgoingEdges(n.ID, []model.EdgeKind{model.EdgeUses, model.EdgeCalls})
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			target, err := m.targetFile(e.Target)
			if err != nil || target == "" || seen[target] {
				continue
			}
			seen[target] = true
			deps = append(deps, target)
		}
	}
	sort.Strings(deps)
	return deps, nil
}

// GetFileDependents is the inverse of GetFileDependencies: files that
// depend on filePath.
func (m *Manager) GetFileDependents(filePath string) ([]string, error) {
	nodes, err := m.reader.GetNodesByFile(filePath)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{filePath: true}
	var dependents []string
	for _, n := range nodes {
		edges, err := m.reader.GetIncomingEdges(n.ID, []model.EdgeKind{model.EdgeUses, model.EdgeCalls})
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			source, err := m.sourceFile(e.Source)
			if err != nil || source == "" || seen[source] {
				continue
			}
			seen[source] = true
			dependents = append(dependents, source)
		}
	}
	sort.Strings(dependents)
	return dependents, nil
}

func (m *Manager) targetFile(nodeID string) (string, error) {
	return m.nodeFile(nodeID)
}

func (m *Manager) sourceFile(nodeID string) (string, error) {
	return m.nodeFile(nodeID)
}

// nodeFile resolves a node ID to its file path. A missing node (e.g. a
// dangling edge left over from a partially-applied delete) is not fatal —
// callers treat an empty result as "skip this edge".
func (m *Manager) nodeFile(nodeID string) (string, error) {
	node, err := m.reader.GetNodeByID(nodeID)
	if err != nil {
		if err == model.ErrNodeNotFound {
			return "", nil
		}
		return "", err
	}
	return node.FilePath, nil
}

// FindCircularDependencies finds cycles in the file-level dependency graph
// (built via GetFileDependencies for every known file) using recursive DFS
// with visited/on-stack sets.
func (m *Manager) FindCircularDependencies() ([][]string, error) {
	files, err := m.reader.GetAllFiles()
	if err != nil {
		return nil, err
	}

	adjacency := map[string][]string{}
	for _, f := range files {
		deps, err := m.GetFileDependencies(f.Path)
		if err != nil {
			return nil, err
		}
		adjacency[f.Path] = deps
	}

	visited := traverse.NewVisitedSet()
	onStack := traverse.NewVisitedSet()
	var cycles [][]string

	var stack []string
	var dfs func(node string)
	dfs = func(node string) {
		visited.Add(node)
		onStack.Add(node)
		stack = append(stack, node)

		for _, neighbor := range adjacency[node] {
			if onStack.Contains(neighbor) {
				cycle := extractCycle(stack, neighbor)
				cycles = append(cycles, cycle)
				continue
			}
			if !visited.Contains(neighbor) {
				dfs(neighbor)
			}
		}

		onStack.Remove(node)
		stack = stack[:len(stack)-1]
	}

	for _, f := range files {
		if !visited.Contains(f.Path) {
			dfs(f.Path)
		}
	}

	return cycles, nil
}

func extractCycle(stack []string, repeated string) []string {
	for i, n := range stack {
		if n == repeated {
			cycle := append([]string{}, stack[i:]...)
			return append(cycle, repeated)
		}
	}
	return []string{repeated}
}
