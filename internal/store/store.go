// Package store implements the graph's persistent, transactional contract
// (spec.md §4.1) over modernc.org/sqlite — a five-table schema (nodes,
// edges, files, unresolved_refs, vectors) plus an FTS5 shadow table for
// search_nodes, grounded on the teacher's sidecar-database idiom in
// internal/graph/sqlite_graph.go.
package store

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/ternarybob/codegraph/internal/model"
)

// Store is the embedded relational graph store. All operations are
// blocking (spec.md §5 — single-threaded core, no internal worker pool).
type Store struct {
	db   *sql.DB
	path string
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	qualified_name TEXT NOT NULL,
	file_path TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	start_column INTEGER NOT NULL,
	end_column INTEGER NOT NULL,
	signature TEXT,
	docstring TEXT,
	visibility TEXT NOT NULL,
	is_async INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nodes_file_path ON nodes(file_path);
CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);

CREATE TABLE IF NOT EXISTS edges (
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	kind TEXT NOT NULL,
	line INTEGER
);
CREATE INDEX IF NOT EXISTS idx_edges_source_kind ON edges(source, kind);
CREATE INDEX IF NOT EXISTS idx_edges_target_kind ON edges(target, kind);

CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	fast_hash TEXT NOT NULL DEFAULT '',
	size INTEGER NOT NULL,
	modified_at INTEGER NOT NULL,
	indexed_at INTEGER NOT NULL,
	node_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS unresolved_refs (
	from_node_id TEXT NOT NULL,
	reference_name TEXT NOT NULL,
	reference_kind TEXT NOT NULL,
	line INTEGER NOT NULL,
	col INTEGER NOT NULL,
	file_path TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_unresolved_from ON unresolved_refs(from_node_id);

CREATE TABLE IF NOT EXISTS vectors (
	node_id TEXT PRIMARY KEY,
	embedding BLOB
);

CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
	name, qualified_name, docstring, signature,
	content='nodes', content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS nodes_ai AFTER INSERT ON nodes BEGIN
	INSERT INTO nodes_fts(rowid, name, qualified_name, docstring, signature)
	VALUES (new.rowid, new.name, new.qualified_name, new.docstring, new.signature);
END;
CREATE TRIGGER IF NOT EXISTS nodes_ad AFTER DELETE ON nodes BEGIN
	INSERT INTO nodes_fts(nodes_fts, rowid, name, qualified_name, docstring, signature)
	VALUES ('delete', old.rowid, old.name, old.qualified_name, old.docstring, old.signature);
END;
CREATE TRIGGER IF NOT EXISTS nodes_au AFTER UPDATE ON nodes BEGIN
	INSERT INTO nodes_fts(nodes_fts, rowid, name, qualified_name, docstring, signature)
	VALUES ('delete', old.rowid, old.name, old.qualified_name, old.docstring, old.signature);
	INSERT INTO nodes_fts(rowid, name, qualified_name, docstring, signature)
	VALUES (new.rowid, new.name, new.qualified_name, new.docstring, new.signature);
END;
`

// pragmas are applied once per connection. They encode spec.md §4.1's
// "performance pragmas / configuration" design intent: WAL journaling,
// normal sync, a generous page cache, memory-backed temp storage, mmap
// I/O, and a multi-minute busy timeout for cross-process contention.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA cache_size=-65536", // 64MB, negative = KB
	"PRAGMA temp_store=MEMORY",
	"PRAGMA mmap_size=268435456", // 256MB
	"PRAGMA busy_timeout=300000", // 5 minutes
	"PRAGMA foreign_keys=OFF",
}

// Open opens (creating if necessary) the SQLite-backed store at path and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &model.DBError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1) // single-writer discipline, spec.md §5

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, &model.DBError{Op: "pragma", Err: fmt.Errorf("%s: %w", p, err)}
		}
	}

	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, &model.DBError{Op: "schema", Err: err}
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return &model.DBError{Op: "close", Err: err}
	}
	return nil
}

// Size returns the on-disk byte size of the database file, used by
// get_stats(). Best-effort: returns 0 if the file cannot be stat'd (e.g.
// an in-memory database).
func (s *Store) Size() uint64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return uint64(info.Size())
}
