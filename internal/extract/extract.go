// Package extract defines the language-extractor capability interface and
// registry (spec.md §4.2, §9 "polymorphism over languages" translation:
// an explicit capability interface plus a registry keyed by file
// extension, never virtual-dispatched class hierarchies).
package extract

import (
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/codegraph/internal/model"
)

// LanguageExtractor turns one file's source into a language-neutral
// ExtractionResult.
type LanguageExtractor interface {
	// Extensions lists the file extensions (without the leading dot) this
	// extractor claims, e.g. "go", "rs", "java".
	Extensions() []string
	// LanguageName is a human-readable name, used in error messages.
	LanguageName() string
	// Extract parses source and produces nodes, edges, and unresolved
	// references. It never panics; parse failures are recorded in the
	// result's Errors slice instead.
	Extract(filePath string, source []byte) model.ExtractionResult
}

// Registry dispatches files to the extractor registered for their
// extension. Resolving Open Question 2 of spec.md §9: the orchestrator
// never hard-wires a single language — files with no registered extension
// are skipped rather than mis-parsed by an unrelated extractor.
type Registry struct {
	mu         sync.RWMutex
	byExtension map[string]LanguageExtractor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExtension: make(map[string]LanguageExtractor)}
}

// Register adds an extractor for all of its declared extensions. Later
// registrations for the same extension win.
func (r *Registry) Register(e LanguageExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range e.Extensions() {
		r.byExtension[strings.ToLower(ext)] = e
	}
}

// For returns the extractor registered for filePath's extension, and false
// if none is registered.
func (r *Registry) For(filePath string) (LanguageExtractor, bool) {
	ext := extensionOf(filePath)
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byExtension[ext]
	return e, ok
}

func extensionOf(filePath string) string {
	idx := strings.LastIndexByte(filePath, '.')
	if idx < 0 || idx == len(filePath)-1 {
		return ""
	}
	return strings.ToLower(filePath[idx+1:])
}

// State is the shared traversal-state scaffolding every extractor's
// tree-walk carries (spec.md §4.2): a node stack tracking the current
// lexical container, the source buffer being sliced, and a single
// extraction-start timestamp.
type State struct {
	FilePath  string
	Source    []byte
	StartedAt time.Time

	stack []stackFrame

	Nodes          []model.Node
	Edges          []model.Edge
	UnresolvedRefs []model.UnresolvedRef
	Errors         []error
}

type stackFrame struct {
	Name string
	ID   string
}

// NewState creates extraction state for one file.
func NewState(filePath string, source []byte) *State {
	return &State{FilePath: filePath, Source: source, StartedAt: time.Now()}
}

// Push enters a new lexical container (class, struct, impl, module, ...).
func (s *State) Push(name, id string) { s.stack = append(s.stack, stackFrame{Name: name, ID: id}) }

// Pop leaves the innermost lexical container.
func (s *State) Pop() {
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// ParentID returns the ID of the current innermost container, or "" if the
// stack is empty (only the case before the File node is pushed).
func (s *State) ParentID() string {
	if len(s.stack) == 0 {
		return ""
	}
	return s.stack[len(s.stack)-1].ID
}

// QualifiedPrefix returns the file path followed by each stacked name,
// joined by "::" (spec.md §4.2).
func (s *State) QualifiedPrefix() string {
	parts := make([]string, 0, len(s.stack)+1)
	parts = append(parts, s.FilePath)
	for _, f := range s.stack {
		parts = append(parts, f.Name)
	}
	return strings.Join(parts, "::")
}

// QualifiedName builds the qualified name for a declaration named name
// directly under the current container.
func (s *State) QualifiedName(name string) string {
	return s.QualifiedPrefix() + "::" + name
}

// AddNode appends a node to the result and emits a Contains edge from the
// current parent, unless this is the File root itself (parent == "").
func (s *State) AddNode(n model.Node) {
	s.Nodes = append(s.Nodes, n)
	if parent := s.ParentID(); parent != "" {
		s.Edges = append(s.Edges, model.Edge{Source: parent, Target: n.ID, Kind: model.EdgeContains})
	}
}

// AddUnresolvedRef records a textual reference to be resolved cross-file later.
func (s *State) AddUnresolvedRef(ref model.UnresolvedRef) {
	s.UnresolvedRefs = append(s.UnresolvedRefs, ref)
}

// AddError records a non-fatal per-file error; it never aborts extraction.
func (s *State) AddError(err error) { s.Errors = append(s.Errors, err) }

// Result assembles the final ExtractionResult, stamping duration.
func (s *State) Result() model.ExtractionResult {
	return model.ExtractionResult{
		Nodes:          s.Nodes,
		Edges:          s.Edges,
		UnresolvedRefs: s.UnresolvedRefs,
		Errors:         s.Errors,
		DurationMS:     time.Since(s.StartedAt).Milliseconds(),
	}
}
