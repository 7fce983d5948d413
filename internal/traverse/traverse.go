// Package traverse implements the bounded BFS/DFS traversal kernel and its
// derived queries, grounded on the original implementation's
// src/graph/traversal.rs. Per the expanded specification's resolution of
// the "thin wrappers vs hand-written loops" tension in the original code,
// GetCallers/GetCallees here are implemented as thin wrappers over
// TraverseBFS rather than their own hand-rolled BFS loops.
package traverse

import (
	"math"

	"github.com/RoaringBitmap/roaring"

	"github.com/ternarybob/codegraph/internal/model"
)

// VisitedSet tracks visited node IDs as a RoaringBitmap over per-call
// interned uint32s, mirroring the teacher's fileToNodes/nodeIntID interning
// pattern but scoped to a single traversal rather than the whole store.
// Exported so internal/query's cycle detector can share the same on-stack
// and visited bookkeeping.
type VisitedSet struct {
	ids  map[string]uint32
	bits *roaring.Bitmap
}

// NewVisitedSet returns an empty VisitedSet.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{ids: make(map[string]uint32), bits: roaring.New()}
}

func (v *VisitedSet) id(key string) uint32 {
	n, ok := v.ids[key]
	if !ok {
		n = uint32(len(v.ids))
		v.ids[key] = n
	}
	return n
}

// Contains reports whether key was previously Add-ed and not since Removed.
func (v *VisitedSet) Contains(key string) bool {
	n, ok := v.ids[key]
	if !ok {
		return false
	}
	return v.bits.Contains(n)
}

// Add marks key as visited.
func (v *VisitedSet) Add(key string) {
	v.bits.Add(v.id(key))
}

// Remove un-marks key, used by the cycle detector's on-stack set when
// backtracking out of a DFS frame.
func (v *VisitedSet) Remove(key string) {
	if n, ok := v.ids[key]; ok {
		v.bits.Remove(n)
	}
}

type visitedSet = VisitedSet

func newVisitedSet() *VisitedSet { return NewVisitedSet() }

// EdgeReader is the minimal store surface a Traverser needs. Satisfied by
// *internal/store.Store.
type EdgeReader interface {
	GetNodeByID(id string) (model.Node, error)
	GetOutgoingEdges(nodeID string, kinds []model.EdgeKind) ([]model.Edge, error)
	GetIncomingEdges(nodeID string, kinds []model.EdgeKind) ([]model.Edge, error)
}

// Traverser performs graph traversal operations against an EdgeReader.
type Traverser struct {
	reader EdgeReader
}

// New returns a Traverser backed by reader.
func New(reader EdgeReader) *Traverser {
	return &Traverser{reader: reader}
}

// CallerPair is a (caller node, edge used to reach it) result.
type CallerPair struct {
	Node model.Node
	Edge model.Edge
}

// PathStep is one step of a reconstructed path: the node, and the edge used
// to reach it (nil for the first step).
type PathStep struct {
	Node model.Node
	Edge *model.Edge
}

// TraverseBFS performs a breadth-first traversal from startID honoring
// opts.MaxDepth, opts.EdgeKinds, opts.NodeKinds, opts.Direction, and
// opts.Limit. Mirrors traversal.rs's traverse_bfs exactly, including its
// subtle result_edges.push(edge) on the iteration that crosses the limit.
func (t *Traverser) TraverseBFS(startID string, opts model.TraversalOptions) (model.Subgraph, error) {
	visited := newVisitedSet()
	var resultNodes []model.Node
	var resultEdges []model.Edge
	var roots []string

	startNode, err := t.reader.GetNodeByID(startID)
	if err != nil {
		if err == model.ErrNodeNotFound {
			return model.Subgraph{}, nil
		}
		return model.Subgraph{}, err
	}

	visited.Add(startID)
	if opts.IncludeStart && nodeMatchesFilter(startNode, opts) {
		roots = append(roots, startID)
		resultNodes = append(resultNodes, startNode)
	}

	type queueItem struct {
		id    string
		depth uint32
	}
	queue := []queueItem{{startID, 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= opts.MaxDepth {
			continue
		}
		if uint32(len(resultNodes)) >= opts.Limit {
			break
		}

		edges, err := t.edgesForDirection(current.id, opts.EdgeKinds, opts.Direction)
		if err != nil {
			return model.Subgraph{}, err
		}

		for _, edge := range edges {
			neighborID := neighborID(edge, current.id, opts.Direction)
			if visited.Contains(neighborID) {
				continue
			}
			visited.Add(neighborID)

			neighborNode, err := t.reader.GetNodeByID(neighborID)
			if err != nil {
				if err == model.ErrNodeNotFound {
					continue
				}
				return model.Subgraph{}, err
			}

			if nodeMatchesFilter(neighborNode, opts) {
				resultNodes = append(resultNodes, neighborNode)
				if uint32(len(resultNodes)) >= opts.Limit {
					resultEdges = append(resultEdges, edge)
					break
				}
			}
			resultEdges = append(resultEdges, edge)
			queue = append(queue, queueItem{neighborID, current.depth + 1})
		}
	}

	return model.Subgraph{Nodes: resultNodes, Edges: resultEdges, Roots: roots}, nil
}

// TraverseDFS performs a depth-first traversal from startID, honoring the
// same options as TraverseBFS.
func (t *Traverser) TraverseDFS(startID string, opts model.TraversalOptions) (model.Subgraph, error) {
	visited := newVisitedSet()
	var resultNodes []model.Node
	var resultEdges []model.Edge
	var roots []string

	startNode, err := t.reader.GetNodeByID(startID)
	if err != nil {
		if err == model.ErrNodeNotFound {
			return model.Subgraph{}, nil
		}
		return model.Subgraph{}, err
	}

	visited.Add(startID)
	if opts.IncludeStart && nodeMatchesFilter(startNode, opts) {
		roots = append(roots, startID)
		resultNodes = append(resultNodes, startNode)
	}

	if err := t.dfsRecursive(startID, 0, opts, visited, &resultNodes, &resultEdges); err != nil {
		return model.Subgraph{}, err
	}

	return model.Subgraph{Nodes: resultNodes, Edges: resultEdges, Roots: roots}, nil
}

func (t *Traverser) dfsRecursive(currentID string, depth uint32, opts model.TraversalOptions, visited *visitedSet, resultNodes *[]model.Node, resultEdges *[]model.Edge) error {
	if depth >= opts.MaxDepth {
		return nil
	}
	if uint32(len(*resultNodes)) >= opts.Limit {
		return nil
	}

	edges, err := t.edgesForDirection(currentID, opts.EdgeKinds, opts.Direction)
	if err != nil {
		return err
	}

	for _, edge := range edges {
		neighborID := neighborID(edge, currentID, opts.Direction)
		if visited.Contains(neighborID) {
			continue
		}
		visited.Add(neighborID)

		neighborNode, err := t.reader.GetNodeByID(neighborID)
		if err != nil {
			if err == model.ErrNodeNotFound {
				continue
			}
			return err
		}

		if nodeMatchesFilter(neighborNode, opts) {
			*resultNodes = append(*resultNodes, neighborNode)
			if uint32(len(*resultNodes)) >= opts.Limit {
				*resultEdges = append(*resultEdges, edge)
				return nil
			}
		}
		*resultEdges = append(*resultEdges, edge)
		if err := t.dfsRecursive(neighborID, depth+1, opts, visited, resultNodes, resultEdges); err != nil {
			return err
		}
	}
	return nil
}

// GetCallers returns nodes that call nodeID, transitively up to maxDepth,
// as a thin wrapper over TraverseBFS with Direction=Incoming and
// EdgeKinds=[Calls].
func (t *Traverser) GetCallers(nodeID string, maxDepth uint32) ([]CallerPair, error) {
	sub, err := t.TraverseBFS(nodeID, model.TraversalOptions{
		MaxDepth: maxDepth, EdgeKinds: []model.EdgeKind{model.EdgeCalls},
		Direction: model.DirIncoming, Limit: math.MaxUint32, IncludeStart: false,
	})
	if err != nil {
		return nil, err
	}
	return zipPairs(sub), nil
}

// GetCallees returns nodes that nodeID calls, transitively up to maxDepth,
// as a thin wrapper over TraverseBFS with Direction=Outgoing and
// EdgeKinds=[Calls].
func (t *Traverser) GetCallees(nodeID string, maxDepth uint32) ([]CallerPair, error) {
	sub, err := t.TraverseBFS(nodeID, model.TraversalOptions{
		MaxDepth: maxDepth, EdgeKinds: []model.EdgeKind{model.EdgeCalls},
		Direction: model.DirOutgoing, Limit: math.MaxUint32, IncludeStart: false,
	})
	if err != nil {
		return nil, err
	}
	return zipPairs(sub), nil
}

// zipPairs pairs Subgraph.Nodes with Subgraph.Edges positionally. This is
// valid because, with IncludeStart=false and no node-kind filter, every
// discovered node in TraverseBFS/TraverseDFS corresponds to exactly one
// appended edge in the same order.
func zipPairs(sub model.Subgraph) []CallerPair {
	n := len(sub.Nodes)
	if len(sub.Edges) < n {
		n = len(sub.Edges)
	}
	pairs := make([]CallerPair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, CallerPair{Node: sub.Nodes[i], Edge: sub.Edges[i]})
	}
	return pairs
}

// GetImpactRadius returns every node that directly or indirectly references
// or calls nodeID: a BFS over all incoming edge kinds, unbounded limit.
func (t *Traverser) GetImpactRadius(nodeID string, maxDepth uint32) (model.Subgraph, error) {
	return t.TraverseBFS(nodeID, model.TraversalOptions{
		MaxDepth: maxDepth, Direction: model.DirIncoming, Limit: math.MaxUint32, IncludeStart: true,
	})
}

// GetCallGraph builds a bidirectional call graph around nodeID: outgoing
// Calls edges (callees) unioned with incoming Calls edges (callers),
// deduplicating nodes by ID and edges by (source, target, kind).
func (t *Traverser) GetCallGraph(nodeID string, depth uint32) (model.Subgraph, error) {
	outgoing, err := t.TraverseBFS(nodeID, model.TraversalOptions{
		MaxDepth: depth, EdgeKinds: []model.EdgeKind{model.EdgeCalls},
		Direction: model.DirOutgoing, Limit: math.MaxUint32, IncludeStart: true,
	})
	if err != nil {
		return model.Subgraph{}, err
	}
	incoming, err := t.TraverseBFS(nodeID, model.TraversalOptions{
		MaxDepth: depth, EdgeKinds: []model.EdgeKind{model.EdgeCalls},
		Direction: model.DirIncoming, Limit: math.MaxUint32, IncludeStart: false,
	})
	if err != nil {
		return model.Subgraph{}, err
	}

	seenNodes := map[string]bool{}
	var nodes []model.Node
	for _, n := range append(append([]model.Node{}, outgoing.Nodes...), incoming.Nodes...) {
		if !seenNodes[n.ID] {
			seenNodes[n.ID] = true
			nodes = append(nodes, n)
		}
	}

	type edgeKey struct{ src, dst, kind string }
	seenEdges := map[edgeKey]bool{}
	var edges []model.Edge
	for _, e := range append(append([]model.Edge{}, outgoing.Edges...), incoming.Edges...) {
		key := edgeKey{e.Source, e.Target, e.Kind.String()}
		if !seenEdges[key] {
			seenEdges[key] = true
			edges = append(edges, e)
		}
	}

	return model.Subgraph{Nodes: nodes, Edges: edges, Roots: outgoing.Roots}, nil
}

// GetTypeHierarchy discovers the type hierarchy around nodeID by following
// Implements edges in both directions, up to depth 10.
func (t *Traverser) GetTypeHierarchy(nodeID string) (model.Subgraph, error) {
	return t.TraverseBFS(nodeID, model.TraversalOptions{
		MaxDepth: 10, EdgeKinds: []model.EdgeKind{model.EdgeImplements},
		Direction: model.DirBoth, Limit: math.MaxUint32, IncludeStart: true,
	})
}

// FindPath finds the shortest path between fromID and toID using
// bidirectional BFS (outgoing edges checked before incoming at each node),
// reconstructed via parent pointers. Returns (nil, nil) if no path exists.
func (t *Traverser) FindPath(fromID, toID string, edgeKinds []model.EdgeKind) ([]PathStep, error) {
	if fromID == toID {
		node, err := t.reader.GetNodeByID(fromID)
		if err != nil {
			if err == model.ErrNodeNotFound {
				return nil, nil
			}
			return nil, err
		}
		return []PathStep{{Node: node}}, nil
	}

	type parentInfo struct {
		parent string
		edge   model.Edge
	}
	parentMap := map[string]parentInfo{}
	visited := newVisitedSet()
	visited.Add(fromID)
	queue := []string{fromID}
	found := false

outer:
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		outgoing, err := t.reader.GetOutgoingEdges(current, edgeKinds)
		if err != nil {
			return nil, err
		}
		for _, edge := range outgoing {
			neighbor := edge.Target
			if visited.Contains(neighbor) {
				continue
			}
			visited.Add(neighbor)
			parentMap[neighbor] = parentInfo{parent: current, edge: edge}
			if neighbor == toID {
				found = true
				break outer
			}
			queue = append(queue, neighbor)
		}

		incoming, err := t.reader.GetIncomingEdges(current, edgeKinds)
		if err != nil {
			return nil, err
		}
		for _, edge := range incoming {
			neighbor := edge.Source
			if visited.Contains(neighbor) {
				continue
			}
			visited.Add(neighbor)
			parentMap[neighbor] = parentInfo{parent: current, edge: edge}
			if neighbor == toID {
				found = true
				break outer
			}
			queue = append(queue, neighbor)
		}
	}

	if !found {
		return nil, nil
	}

	type stepID struct {
		id   string
		edge *model.Edge
	}
	var pathIDs []stepID
	current := toID
	for current != fromID {
		info, ok := parentMap[current]
		if !ok {
			return nil, nil
		}
		e := info.edge
		pathIDs = append(pathIDs, stepID{id: current, edge: &e})
		current = info.parent
	}
	pathIDs = append(pathIDs, stepID{id: fromID, edge: nil})

	// Reverse.
	for i, j := 0, len(pathIDs)-1; i < j; i, j = i+1, j-1 {
		pathIDs[i], pathIDs[j] = pathIDs[j], pathIDs[i]
	}

	path := make([]PathStep, 0, len(pathIDs))
	for _, s := range pathIDs {
		node, err := t.reader.GetNodeByID(s.id)
		if err != nil {
			if err == model.ErrNodeNotFound {
				continue
			}
			return nil, err
		}
		path = append(path, PathStep{Node: node, Edge: s.edge})
	}
	return path, nil
}

func (t *Traverser) edgesForDirection(nodeID string, edgeKinds []model.EdgeKind, direction model.TraversalDirection) ([]model.Edge, error) {
	switch direction {
	case model.DirOutgoing:
		return t.reader.GetOutgoingEdges(nodeID, edgeKinds)
	case model.DirIncoming:
		return t.reader.GetIncomingEdges(nodeID, edgeKinds)
	default: // DirBoth
		out, err := t.reader.GetOutgoingEdges(nodeID, edgeKinds)
		if err != nil {
			return nil, err
		}
		in, err := t.reader.GetIncomingEdges(nodeID, edgeKinds)
		if err != nil {
			return nil, err
		}
		return append(out, in...), nil
	}
}

func neighborID(edge model.Edge, currentID string, direction model.TraversalDirection) string {
	switch direction {
	case model.DirOutgoing:
		return edge.Target
	case model.DirIncoming:
		return edge.Source
	default:
		if edge.Source == currentID {
			return edge.Target
		}
		return edge.Source
	}
}

func nodeMatchesFilter(node model.Node, opts model.TraversalOptions) bool {
	if len(opts.NodeKinds) == 0 {
		return true
	}
	for _, k := range opts.NodeKinds {
		if k == node.Kind {
			return true
		}
	}
	return false
}
