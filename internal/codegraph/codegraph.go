// Package codegraph is the central orchestrator coordinating every other
// subsystem: extraction, resolution, storage, traversal, analytical
// queries, and context building. Grounded on the original implementation's
// src/codegraph.rs, generalized from its single hard-wired Rust extractor
// to the language-registry dispatch of internal/extract.
package codegraph

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/viant/afs"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/codegraph/internal/config"
	"github.com/ternarybob/codegraph/internal/contextbuilder"
	"github.com/ternarybob/codegraph/internal/extract"
	"github.com/ternarybob/codegraph/internal/model"
	"github.com/ternarybob/codegraph/internal/query"
	"github.com/ternarybob/codegraph/internal/resolve"
	"github.com/ternarybob/codegraph/internal/store"
	"github.com/ternarybob/codegraph/internal/sync"
	"github.com/ternarybob/codegraph/internal/traverse"
)

// fileSystem is the afs service used to read source files, mirroring
// viant-linager's inspector/repository package's use of afs.New() for
// source-tree reads ahead of static analysis.
var fileSystem = afs.New()

func readFile(path string) ([]byte, error) {
	return fileSystem.DownloadWithURL(context.Background(), path)
}

// firstProgressFunc returns cbs[0] if given, else a no-op. IndexAll/Sync
// take the callback as a variadic arg purely so existing zero-arg call
// sites keep compiling.
func firstProgressFunc(cbs []func(done, total int)) func(done, total int) {
	if len(cbs) > 0 && cbs[0] != nil {
		return cbs[0]
	}
	return func(int, int) {}
}

const dbFileName = "codegraph.db"

// IndexResult summarizes a full indexing pass.
type IndexResult struct {
	FileCount  int
	NodeCount  int
	EdgeCount  int
	DurationMS int64
}

// SyncResult summarizes an incremental sync pass.
type SyncResult struct {
	FilesAdded    int
	FilesModified int
	FilesRemoved  int
	DurationMS    int64
}

// CodeGraph is the central orchestrator, analogous to the original
// implementation's CodeGraph struct.
type CodeGraph struct {
	db          *store.Store
	cfg         config.Config
	projectRoot string
	registry    *extract.Registry
}

// Init creates a new CodeGraph project at projectRoot: writes a default
// config and initializes a fresh database.
func Init(projectRoot string, registry *extract.Registry) (*CodeGraph, error) {
	cfg := config.Default(projectRoot)
	if err := config.Save(projectRoot, cfg); err != nil {
		return nil, err
	}

	db, err := store.Open(dbPath(projectRoot))
	if err != nil {
		return nil, err
	}

	return &CodeGraph{db: db, cfg: cfg, projectRoot: projectRoot, registry: registry}, nil
}

// Open loads an existing CodeGraph project at projectRoot.
func Open(projectRoot string, registry *extract.Registry) (*CodeGraph, error) {
	cfg, err := config.Load(projectRoot)
	if err != nil {
		return nil, err
	}

	path := dbPath(projectRoot)
	if _, err := os.Stat(path); err != nil {
		return nil, &model.ConfigError{Message: "no codegraph database found at '" + path + "'; run 'codegraph init' first"}
	}

	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	return &CodeGraph{db: db, cfg: cfg, projectRoot: projectRoot, registry: registry}, nil
}

// IsInitialized reports whether a CodeGraph project exists at projectRoot.
func IsInitialized(projectRoot string) bool {
	_, err := os.Stat(dbPath(projectRoot))
	return err == nil
}

func dbPath(projectRoot string) string {
	return filepath.Join(config.CodegraphDir(projectRoot), dbFileName)
}

// Close releases the underlying database handle.
func (cg *CodeGraph) Close() error { return cg.db.Close() }

// IndexAll clears existing data, scans every matching file, extracts nodes
// and edges via the language registry, resolves references, and stores
// everything. onProgress, if given, is called after each file is processed
// with the number done and the total file count, letting a CLI render a
// progress bar without IndexAll knowing anything about terminals.
func (cg *CodeGraph) IndexAll(onProgress ...func(done, total int)) (IndexResult, error) {
	start := time.Now()
	progress := firstProgressFunc(onProgress)

	if err := cg.db.Clear(); err != nil {
		return IndexResult{}, err
	}

	files, err := cg.scanFiles()
	if err != nil {
		return IndexResult{}, err
	}

	var totalNodes, totalEdges int
	for i, relPath := range files {
		n, e, err := cg.extractAndStore(relPath)
		if err == nil {
			totalNodes += n
			totalEdges += e
		}
		progress(i+1, len(files))
	}

	resolvedEdges, err := cg.resolveAll()
	if err != nil {
		return IndexResult{}, err
	}
	totalEdges += resolvedEdges

	return IndexResult{
		FileCount: len(files), NodeCount: totalNodes, EdgeCount: totalEdges,
		DurationMS: time.Since(start).Milliseconds(),
	}, nil
}

// Sync performs an incremental re-index: only changed, new, and removed
// files are touched. Unlike the original implementation, this rebuilds
// resolver matches after re-indexing, so cross-file references created by
// newly-synced files are not silently left unresolved.
func (cg *CodeGraph) Sync(onProgress ...func(done, total int)) (SyncResult, error) {
	start := time.Now()
	progress := firstProgressFunc(onProgress)

	files, err := cg.scanFiles()
	if err != nil {
		return SyncResult{}, err
	}

	records, err := cg.db.GetAllFiles()
	if err != nil {
		return SyncResult{}, err
	}
	known := make(map[string]model.FileRecord, len(records))
	for _, r := range records {
		known[r.Path] = r
	}

	// Bounded-parallel read + fast-hash of every candidate file: I/O-bound
	// work that's embarrassingly parallel ahead of the single-threaded
	// extraction pass below, mirroring theRebelliousNerd-codenerd's
	// errgroup.WithContext fan-out over independent per-item work. present
	// tracks every file that still exists on disk (for removal detection);
	// onDisk only carries bytes for files that are new or failed the
	// fast-hash gate against their stored record, so the subsequent
	// SHA-256 comparison in FindStaleFiles only runs where it can matter.
	type readResult struct {
		path      string
		content   []byte
		unchanged bool
	}
	results := make([]readResult, len(files))
	g, gctx := errgroup.WithContext(context.Background())
	g.SetLimit(8)
	for i, relPath := range files {
		i, relPath := i, relPath
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			content, err := readFile(filepath.Join(cg.projectRoot, relPath))
			if err != nil {
				return nil
			}
			record, hasRecord := known[relPath]
			unchanged := hasRecord && record.FastHash != "" && record.FastHash == sync.FastHash(content)
			results[i] = readResult{path: relPath, content: content, unchanged: unchanged}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SyncResult{}, err
	}

	present := make(map[string][]byte, len(files))
	onDisk := make(map[string][]byte, len(files))
	for _, r := range results {
		if r.path == "" {
			continue
		}
		present[r.path] = nil
		if !r.unchanged {
			onDisk[r.path] = r.content
		}
	}

	stale := sync.FindStaleFiles(onDisk, known)
	fresh := sync.FindNewFiles(onDisk, known)
	removed := sync.FindRemovedFiles(present, known)

	for _, path := range removed {
		if err := cg.db.DeleteFile(path); err != nil {
			return SyncResult{}, err
		}
	}

	toIndex := append(append([]string{}, stale...), fresh...)
	for i, relPath := range toIndex {
		if err := cg.db.DeleteNodesByFile(relPath); err == nil {
			_, _, _ = cg.extractAndStore(relPath)
		}
		progress(i+1, len(toIndex))
	}

	if len(toIndex) > 0 || len(removed) > 0 {
		if _, err := cg.resolveAll(); err != nil {
			return SyncResult{}, err
		}
	}

	return SyncResult{
		FilesAdded: len(fresh), FilesModified: len(stale), FilesRemoved: len(removed),
		DurationMS: time.Since(start).Milliseconds(),
	}, nil
}

// extractAndStore reads, extracts, and stores a single file's nodes, edges,
// unresolved refs, and file record. Returns the node and edge counts
// inserted.
func (cg *CodeGraph) extractAndStore(relPath string) (int, int, error) {
	extractor, ok := cg.registry.For(relPath)
	if !ok {
		return 0, 0, nil
	}

	absPath := filepath.Join(cg.projectRoot, relPath)
	source, err := readFile(absPath)
	if err != nil {
		return 0, 0, err
	}

	result := extractor.Extract(relPath, source)

	if err := cg.db.InsertNodes(result.Nodes); err != nil {
		return 0, 0, err
	}
	if err := cg.db.InsertEdges(result.Edges); err != nil {
		return 0, 0, err
	}
	if len(result.UnresolvedRefs) > 0 {
		if err := cg.db.InsertUnresolvedRefs(result.UnresolvedRefs); err != nil {
			return 0, 0, err
		}
	}

	now := time.Now().Unix()
	record := model.FileRecord{
		Path: relPath, ContentHash: sync.ContentHash(source), FastHash: sync.FastHash(source),
		Size: uint64(len(source)), ModifiedAt: now, IndexedAt: now, NodeCount: uint32(len(result.Nodes)),
	}
	if err := cg.db.UpsertFile(record); err != nil {
		return 0, 0, err
	}

	return len(result.Nodes), len(result.Edges), nil
}

// resolveAll reloads every unresolved reference, resolves it against the
// full current node set, inserts the resulting edges, and clears the
// unresolved-ref table (the resolver's output fully replaces its input).
func (cg *CodeGraph) resolveAll() (int, error) {
	unresolved, err := cg.db.GetUnresolvedRefs()
	if err != nil {
		return 0, err
	}
	if len(unresolved) == 0 {
		return 0, nil
	}

	allNodes, err := cg.db.GetAllNodes()
	if err != nil {
		return 0, err
	}

	resolver := resolve.New(allNodes)
	result := resolver.ResolveAll(unresolved)
	edges := resolve.CreateEdges(result.Resolved)
	if len(edges) > 0 {
		if err := cg.db.InsertEdges(edges); err != nil {
			return 0, err
		}
	}
	if err := cg.db.ClearUnresolvedRefs(); err != nil {
		return 0, err
	}
	if len(result.Unresolved) > 0 {
		if err := cg.db.InsertUnresolvedRefs(result.Unresolved); err != nil {
			return 0, err
		}
	}
	return len(edges), nil
}

// scanFiles walks projectRoot, skipping hidden directories and any
// directory named "target", applying the configured include/exclude
// globs and max file size.
func (cg *CodeGraph) scanFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(cg.projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != cg.projectRoot && (isHidden(name) || name == "target") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(cg.projectRoot, path)
		if err != nil {
			return nil
		}
		if !cg.cfg.ShouldIncludeFile(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > cg.cfg.MaxFileSize {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// ---------------------------------------------------------------------
// Query delegation
// ---------------------------------------------------------------------

// Search delegates to the store's two-tier FTS/LIKE search.
func (cg *CodeGraph) Search(q string, limit int) ([]model.SearchResult, error) {
	return cg.db.SearchNodes(q, limit)
}

// GetStats delegates to the store's aggregate statistics.
func (cg *CodeGraph) GetStats() (model.GraphStats, error) {
	return cg.db.GetStats()
}

// GetNode retrieves a single node by ID.
func (cg *CodeGraph) GetNode(id string) (model.Node, error) {
	return cg.db.GetNodeByID(id)
}

// GetCallers returns nodes that transitively call nodeID, up to maxDepth.
func (cg *CodeGraph) GetCallers(nodeID string, maxDepth uint32) ([]traverse.CallerPair, error) {
	return traverse.New(cg.db).GetCallers(nodeID, maxDepth)
}

// GetCallees returns nodes that nodeID transitively calls, up to maxDepth.
func (cg *CodeGraph) GetCallees(nodeID string, maxDepth uint32) ([]traverse.CallerPair, error) {
	return traverse.New(cg.db).GetCallees(nodeID, maxDepth)
}

// GetImpactRadius computes every node that directly or indirectly depends
// on nodeID, up to maxDepth.
func (cg *CodeGraph) GetImpactRadius(nodeID string, maxDepth uint32) (model.Subgraph, error) {
	return traverse.New(cg.db).GetImpactRadius(nodeID, maxDepth)
}

// GetCallGraph builds the bidirectional call graph around nodeID.
func (cg *CodeGraph) GetCallGraph(nodeID string, depth uint32) (model.Subgraph, error) {
	return traverse.New(cg.db).GetCallGraph(nodeID, depth)
}

// GetTypeHierarchy discovers the Implements hierarchy around nodeID.
func (cg *CodeGraph) GetTypeHierarchy(nodeID string) (model.Subgraph, error) {
	return traverse.New(cg.db).GetTypeHierarchy(nodeID)
}

// FindPath finds the shortest path between two nodes.
func (cg *CodeGraph) FindPath(fromID, toID string, edgeKinds []model.EdgeKind) ([]traverse.PathStep, error) {
	return traverse.New(cg.db).FindPath(fromID, toID, edgeKinds)
}

// FindDeadCode finds potentially unreachable nodes. An empty kinds filters
// nothing; a non-empty kinds restricts candidates to those node kinds.
func (cg *CodeGraph) FindDeadCode(kinds []model.NodeKind) ([]model.Node, error) {
	return query.New(cg.db).FindDeadCode(kinds)
}

// GetNodeMetrics computes connectivity metrics for a single node.
func (cg *CodeGraph) GetNodeMetrics(nodeID string) (model.NodeMetrics, error) {
	return query.New(cg.db).GetNodeMetrics(nodeID)
}

// GetFileDependencies returns the files filePath depends on.
func (cg *CodeGraph) GetFileDependencies(filePath string) ([]string, error) {
	return query.New(cg.db).GetFileDependencies(filePath)
}

// GetFileDependents returns the files that depend on filePath.
func (cg *CodeGraph) GetFileDependents(filePath string) ([]string, error) {
	return query.New(cg.db).GetFileDependents(filePath)
}

// FindCircularDependencies finds cycles in the file-level dependency graph.
func (cg *CodeGraph) FindCircularDependencies() ([][]string, error) {
	return query.New(cg.db).FindCircularDependencies()
}

// BuildContext assembles an LLM-ready TaskContext for a free-text task
// description.
func (cg *CodeGraph) BuildContext(task string, opts model.BuildContextOptions) (model.TaskContext, error) {
	builder := contextbuilder.New(cg.db, traverse.New(cg.db), cg.projectRoot)
	return builder.BuildContext(task, opts)
}

// FindRelevantContext is BuildContext without code-block extraction.
func (cg *CodeGraph) FindRelevantContext(task string, opts model.BuildContextOptions) (model.TaskContext, error) {
	builder := contextbuilder.New(cg.db, traverse.New(cg.db), cg.projectRoot)
	return builder.FindRelevantContext(task, opts)
}

// GetConfig returns the current project configuration.
func (cg *CodeGraph) GetConfig() config.Config { return cg.cfg }

// ProjectRoot returns the project's root path.
func (cg *CodeGraph) ProjectRoot() string { return cg.projectRoot }
