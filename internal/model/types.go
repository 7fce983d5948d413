package model

// Node is a code entity with stable, content-derived identity.
type Node struct {
	ID            string
	Kind          NodeKind
	Name          string
	QualifiedName string
	FilePath      string
	StartLine     uint32
	EndLine       uint32
	StartColumn   uint32
	EndColumn     uint32
	Signature     string // empty means absent
	Docstring     string // empty means absent
	Visibility    Visibility
	IsAsync       bool
	UpdatedAt     int64
}

// Edge is a directed relationship between two nodes. Line is 0 when the
// call/use site has no associated source line.
type Edge struct {
	Source string
	Target string
	Kind   EdgeKind
	Line   uint32
	HasLine bool
}

// FileRecord tracks one indexed source file.
type FileRecord struct {
	Path       string
	ContentHash string
	FastHash   string // HighwayHash pre-check gating the ContentHash comparison during Sync; empty is valid (always treated as changed)
	Size       uint64
	ModifiedAt int64
	IndexedAt  int64
	NodeCount  uint32
}

// UnresolvedRef is a textual name captured at an AST site whose target node
// is not yet known. The resolver consumes these and produces ResolvedRefs.
type UnresolvedRef struct {
	FromNodeID    string
	ReferenceName string
	ReferenceKind EdgeKind
	Line          uint32
	Column        uint32
	FilePath      string
}

// ResolvedRef pairs an UnresolvedRef with the node ID the resolver matched
// it to, a confidence score in [0,1], and a tag naming the strategy used.
type ResolvedRef struct {
	Original     UnresolvedRef
	TargetNodeID string
	Confidence   float64
	ResolvedBy   string
}

// ExtractionResult is the language-neutral output of extracting a single
// file. Errors never abort a batch — they accumulate here instead.
type ExtractionResult struct {
	Nodes          []Node
	Edges          []Edge
	UnresolvedRefs []UnresolvedRef
	Errors         []error
	DurationMS     int64
}

// Subgraph holds a set of nodes, a set of edges, and the roots a traversal
// started from.
type Subgraph struct {
	Nodes []Node
	Edges []Edge
	Roots []string
}

// SearchResult pairs a node with a relevance score. Higher is better.
type SearchResult struct {
	Node  Node
	Score float64
}

// GraphStats holds aggregate counts over the whole store.
type GraphStats struct {
	NodeCount    uint64
	EdgeCount    uint64
	FileCount    uint64
	NodesByKind  map[string]uint64
	EdgesByKind  map[string]uint64
	DBSizeBytes  uint64
	LastUpdated  int64
}

// TraversalOptions controls a single BFS/DFS traversal.
type TraversalOptions struct {
	MaxDepth     uint32
	EdgeKinds    []EdgeKind // nil/empty means "all kinds"
	NodeKinds    []NodeKind // nil/empty means "all kinds"
	Direction    TraversalDirection
	Limit        uint32
	IncludeStart bool
}

// DefaultTraversalOptions mirrors the original implementation's Default
// impl for TraversalOptions (src/types.rs): depth 3, outgoing, limit 100,
// include the start node.
func DefaultTraversalOptions() TraversalOptions {
	return TraversalOptions{
		MaxDepth:     3,
		Direction:    DirOutgoing,
		Limit:        100,
		IncludeStart: true,
	}
}

// BuildContextOptions controls context-pack assembly.
type BuildContextOptions struct {
	MaxNodes         int
	MaxCodeBlocks    int
	MaxCodeBlockSize int
	IncludeCode      bool
	Format           OutputFormat
	SearchLimit      int
	TraversalDepth   int
	MinScore         float64
}

// DefaultBuildContextOptions mirrors the original implementation's Default
// impl for BuildContextOptions (src/types.rs) — spec.md §4.6 names the
// fields but not these numeric defaults.
func DefaultBuildContextOptions() BuildContextOptions {
	return BuildContextOptions{
		MaxNodes:         20,
		MaxCodeBlocks:    5,
		MaxCodeBlockSize: 1500,
		IncludeCode:      true,
		Format:           FormatMarkdown,
		SearchLimit:      3,
		TraversalDepth:   1,
		MinScore:         0.3,
	}
}

// TaskContext is the final, LLM-ready assembly a context builder produces.
type TaskContext struct {
	Query        string
	Summary      string
	Subgraph     Subgraph
	EntryPoints  []Node
	CodeBlocks   []CodeBlock
	RelatedFiles []string
}

// CodeBlock is a snippet of source code extracted for a node.
type CodeBlock struct {
	Content   string
	FilePath  string
	StartLine uint32
	EndLine   uint32
	NodeID    string
}

// ResolutionResult is the outcome of running the resolver over a batch of
// unresolved references.
type ResolutionResult struct {
	Resolved      []ResolvedRef
	Unresolved    []UnresolvedRef
	Total         int
	ResolvedCount int
}

// NodeMetrics describes the connectivity of a single node.
type NodeMetrics struct {
	IncomingEdgeCount int
	OutgoingEdgeCount int
	CallCount         int
	CallerCount       int
	ChildCount        int
	Depth             int
}
