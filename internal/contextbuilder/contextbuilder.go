// Package contextbuilder assembles LLM-ready TaskContext packs: mining
// symbols from a free-text query, searching for entry-point nodes,
// expanding a bounded neighborhood around them, and extracting
// UTF-8/line-boundary-safe code snippets. Grounded on the original
// implementation's src/context/builder.rs, including its stop-word list
// and CamelCase heuristic.
package contextbuilder

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/ternarybob/codegraph/internal/model"
	"github.com/ternarybob/codegraph/internal/traverse"
)

// Searcher is the minimal store surface a Builder needs for entry-point
// discovery.
type Searcher interface {
	SearchNodes(query string, limit int) ([]model.SearchResult, error)
}

// Builder assembles TaskContexts (builder.rs's ContextBuilder).
type Builder struct {
	search    Searcher
	traverser *traverse.Traverser
	projectRoot string
}

// New returns a Builder backed by search (for entry-point discovery) and
// traverser (for neighborhood expansion). projectRoot is prepended when
// reading source files for code snippets.
func New(search Searcher, traverser *traverse.Traverser, projectRoot string) *Builder {
	return &Builder{search: search, traverser: traverser, projectRoot: projectRoot}
}

var stopWords = map[string]bool{
	"the": true, "is": true, "in": true, "for": true, "to": true, "a": true,
	"an": true, "of": true, "and": true, "or": true, "not": true, "this": true,
	"that": true, "it": true, "with": true, "on": true, "at": true, "by": true,
	"from": true, "as": true, "be": true, "was": true, "are": true, "been": true,
	"being": true, "have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "how": true,
	"what": true, "where": true, "when": true, "who": true, "which": true,
	"why": true, "if": true, "then": true, "else": true, "but": true, "so": true,
	"up": true, "out": true, "no": true, "yes": true, "all": true, "any": true,
	"each": true, "every": true, "fix": true, "look": true, "update": true,
	"add": true, "remove": true, "delete": true, "change": true, "check": true,
	"find": true, "get": true, "set": true, "use": true, "make": true, "call": true,
	"function": true, "method": true, "class": true, "struct": true, "type": true,
	"module": true, "file": true, "handler": true, "implement": true,
	"create": true, "about": true,
}

// ExtractSymbolsFromQuery mines candidate symbol names from free text:
// "::"-qualified paths contribute both their last segment (filtered by
// stopWords on its own) and the full path (added unconditionally, since a
// qualified path is never itself an English word); snake_case/CamelCase
// tokens are kept verbatim when not themselves a stop word; plain lowercase
// words are never treated as symbols. Mirrors builder.rs's
// extract_symbols_from_query exactly, including which branches apply the
// stop-word filter and which don't.
func ExtractSymbolsFromQuery(query string) []string {
	var symbols []string
	seen := map[string]bool{}
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		symbols = append(symbols, s)
	}

	for _, raw := range strings.Fields(query) {
		token := strings.Trim(raw, ".,;:!?()[]{}\"'")
		if token == "" {
			continue
		}

		if strings.Contains(token, "::") {
			parts := strings.Split(token, "::")
			last := parts[len(parts)-1]
			if last != "" && !stopWords[strings.ToLower(last)] {
				add(last)
			}
			add(token)
			continue
		}

		lower := strings.ToLower(token)

		if strings.Contains(token, "_") {
			if !stopWords[lower] {
				add(token)
			}
			continue
		}

		if isCamelCase(token) {
			if !stopWords[lower] {
				add(token)
			}
			continue
		}

		// Plain lowercase words are never treated as symbols, stop word or
		// not — only qualified paths, snake_case, and CamelCase tokens are.
	}
	return symbols
}

// isCamelCase mirrors builder.rs's is_camel_case: at least 2 chars, every
// rune ASCII alphanumeric, and at least one uppercase letter after index 0.
func isCamelCase(s string) bool {
	if len(s) < 2 {
		return false
	}
	hasUpperAfterFirst := false
	for i, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
		if i > 0 && unicode.IsUpper(r) {
			hasUpperAfterFirst = true
		}
	}
	return hasUpperAfterFirst
}

// scorePasses mirrors builder.rs's score_passes: a result counts only if
// its score is strictly positive and at least minScore.
func scorePasses(score, minScore float64) bool {
	return score > 0 && score >= minScore
}

// FindEntryPoints runs the full query plus one search per mined symbol,
// deduplicating by node ID, filtering by scorePasses, and capping at
// maxNodes.
func (b *Builder) FindEntryPoints(query string, searchLimit, maxNodes int, minScore float64) ([]model.Node, error) {
	seen := map[string]bool{}
	var entries []model.Node

	collect := func(q string) error {
		results, err := b.search.SearchNodes(q, searchLimit)
		if err != nil {
			return err
		}
		for _, r := range results {
			if !scorePasses(r.Score, minScore) {
				continue
			}
			if seen[r.Node.ID] {
				continue
			}
			seen[r.Node.ID] = true
			entries = append(entries, r.Node)
			if len(entries) >= maxNodes {
				return nil
			}
		}
		return nil
	}

	if err := collect(query); err != nil {
		return nil, err
	}
	for _, sym := range ExtractSymbolsFromQuery(query) {
		if len(entries) >= maxNodes {
			break
		}
		if err := collect(sym); err != nil {
			return nil, err
		}
	}

	if len(entries) > maxNodes {
		entries = entries[:maxNodes]
	}
	return entries, nil
}

// ExpandSubgraph runs a bounded Both-direction BFS from every entry point,
// merging results and deduplicating nodes by ID and edges by
// (source, target, kind), stopping early once maxNodes is reached.
func (b *Builder) ExpandSubgraph(entryPoints []model.Node, depth uint32, maxNodes int) (model.Subgraph, error) {
	seenNodes := map[string]bool{}
	seenEdges := map[string]bool{}
	var nodes []model.Node
	var edges []model.Edge
	var roots []string

	for _, entry := range entryPoints {
		if len(nodes) >= maxNodes {
			break
		}
		sub, err := b.traverser.TraverseBFS(entry.ID, model.TraversalOptions{
			MaxDepth: depth, Direction: model.DirBoth,
			Limit: uint32(maxNodes), IncludeStart: true,
		})
		if err != nil {
			return model.Subgraph{}, err
		}
		roots = append(roots, entry.ID)
		for _, n := range sub.Nodes {
			if seenNodes[n.ID] {
				continue
			}
			seenNodes[n.ID] = true
			nodes = append(nodes, n)
			if len(nodes) >= maxNodes {
				break
			}
		}
		for _, e := range sub.Edges {
			key := e.Source + "\x00" + e.Target + "\x00" + e.Kind.String()
			if seenEdges[key] {
				continue
			}
			seenEdges[key] = true
			edges = append(edges, e)
		}
	}

	return model.Subgraph{Nodes: nodes, Edges: edges, Roots: roots}, nil
}

// ExtractCodeBlocks reads the source for up to maxBlocks nodes, truncating
// each block at maxBlockSize bytes on a UTF-8 and line boundary and
// appending "..." when truncated.
func (b *Builder) ExtractCodeBlocks(nodes []model.Node, maxBlocks, maxBlockSize int) []model.CodeBlock {
	var blocks []model.CodeBlock
	for _, n := range nodes {
		if len(blocks) >= maxBlocks {
			break
		}
		content, ok := b.getCode(n)
		if !ok {
			continue
		}
		content = truncateSafely(content, maxBlockSize)
		blocks = append(blocks, model.CodeBlock{
			Content: content, FilePath: n.FilePath,
			StartLine: n.StartLine, EndLine: n.EndLine, NodeID: n.ID,
		})
	}
	return blocks
}

// getCode reads n's file and slices out its zero-based, inclusive
// [StartLine, EndLine] range. Any failure (missing file, out-of-range lines) yields ok=false
// rather than an error — a code block is optional context, never required.
func (b *Builder) getCode(n model.Node) (string, bool) {
	path := n.FilePath
	if b.projectRoot != "" {
		path = b.projectRoot + string(os.PathSeparator) + n.FilePath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	lines := strings.Split(string(data), "\n")
	start := int(n.StartLine)
	end := int(n.EndLine)
	if start < 0 || start >= len(lines) || end < start || end >= len(lines) {
		return "", false
	}
	return strings.Join(lines[start:end+1], "\n"), true
}

// truncateSafely cuts content to at most maxSize bytes, backing off to the
// nearest preceding UTF-8 rune boundary and then to the nearest preceding
// newline, appending "..." when truncation occurred.
func truncateSafely(content string, maxSize int) string {
	if len(content) <= maxSize {
		return content
	}
	cut := maxSize
	for cut > 0 && !isUTF8Boundary(content, cut) {
		cut--
	}
	if idx := strings.LastIndexByte(content[:cut], '\n'); idx > 0 {
		cut = idx
	}
	return content[:cut] + "..."
}

func isUTF8Boundary(s string, i int) bool {
	if i <= 0 || i >= len(s) {
		return true
	}
	return s[i]&0xC0 != 0x80
}

// CollectRelatedFiles returns the sorted, deduplicated set of file paths
// touched by sub's nodes.
func CollectRelatedFiles(sub model.Subgraph) []string {
	seen := map[string]bool{}
	var files []string
	for _, n := range sub.Nodes {
		if n.FilePath == "" || seen[n.FilePath] {
			continue
		}
		seen[n.FilePath] = true
		files = append(files, n.FilePath)
	}
	sort.Strings(files)
	return files
}

// BuildSummary produces a short human-readable description of what a
// context pack contains.
func BuildSummary(entryPoints []model.Node, sub model.Subgraph) string {
	if len(entryPoints) == 0 {
		return "No matching symbols found for this query."
	}
	return fmt.Sprintf("Found %d entry point(s), expanded to %d related node(s) across %d file(s).",
		len(entryPoints), len(sub.Nodes), len(CollectRelatedFiles(sub)))
}

// BuildContext runs the full pipeline: mine symbols (implicitly, via
// FindEntryPoints) -> find entry points -> expand neighborhood -> extract
// code blocks (if requested) -> collect related files -> build summary.
func (b *Builder) BuildContext(queryText string, opts model.BuildContextOptions) (model.TaskContext, error) {
	entryPoints, err := b.FindEntryPoints(queryText, opts.SearchLimit, opts.MaxNodes, opts.MinScore)
	if err != nil {
		return model.TaskContext{}, err
	}

	sub, err := b.ExpandSubgraph(entryPoints, uint32(opts.TraversalDepth), opts.MaxNodes)
	if err != nil {
		return model.TaskContext{}, err
	}

	var blocks []model.CodeBlock
	if opts.IncludeCode {
		blocks = b.ExtractCodeBlocks(sub.Nodes, opts.MaxCodeBlocks, opts.MaxCodeBlockSize)
	}

	return model.TaskContext{
		Query: queryText, Summary: BuildSummary(entryPoints, sub), Subgraph: sub,
		EntryPoints: entryPoints, CodeBlocks: blocks, RelatedFiles: CollectRelatedFiles(sub),
	}, nil
}

// FindRelevantContext is BuildContext without code-block extraction,
// matching builder.rs's cheaper find_relevant_context entry point.
func (b *Builder) FindRelevantContext(queryText string, opts model.BuildContextOptions) (model.TaskContext, error) {
	opts.IncludeCode = false
	return b.BuildContext(queryText, opts)
}
