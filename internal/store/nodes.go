package store

import (
	"database/sql"

	"github.com/ternarybob/codegraph/internal/model"
)

const nodeColumns = `id, kind, name, qualified_name, file_path,
	start_line, end_line, start_column, end_column,
	docstring, signature, visibility, is_async, updated_at`

func scanNode(row interface{ Scan(...any) error }) (model.Node, error) {
	var n model.Node
	var kind, vis string
	var isAsync int
	var docstring, signature sql.NullString
	if err := row.Scan(&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath,
		&n.StartLine, &n.EndLine, &n.StartColumn, &n.EndColumn,
		&docstring, &signature, &vis, &isAsync, &n.UpdatedAt); err != nil {
		return model.Node{}, err
	}
	n.Kind = model.ParseNodeKind(kind)
	n.Visibility = model.ParseVisibility(vis)
	n.IsAsync = isAsync != 0
	n.Docstring = docstring.String
	n.Signature = signature.String
	return n, nil
}

// InsertNode inserts or replaces a single node.
func (s *Store) InsertNode(n model.Node) error {
	return s.InsertNodes([]model.Node{n})
}

// InsertNodes inserts or replaces a batch of nodes inside a single
// transaction. Idempotent on id (spec.md §4.1, §8 invariant 3).
func (s *Store) InsertNodes(nodes []model.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return &model.DBError{Op: "insert_nodes", Err: err}
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO nodes (` + nodeColumns + `)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return &model.DBError{Op: "insert_nodes", Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for _, n := range nodes {
		isAsync := 0
		if n.IsAsync {
			isAsync = 1
		}
		if _, err := stmt.Exec(n.ID, n.Kind.String(), n.Name, n.QualifiedName, n.FilePath,
			n.StartLine, n.EndLine, n.StartColumn, n.EndColumn,
			nullable(n.Docstring), nullable(n.Signature), n.Visibility.String(), isAsync, n.UpdatedAt); err != nil {
			_ = tx.Rollback()
			return &model.DBError{Op: "insert_nodes", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &model.DBError{Op: "insert_nodes", Err: err}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// GetNodeByID retrieves a node by its unique ID. Returns model.ErrNodeNotFound
// if no such node exists.
func (s *Store) GetNodeByID(id string) (model.Node, error) {
	row := s.db.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return model.Node{}, model.ErrNodeNotFound
	}
	if err != nil {
		return model.Node{}, &model.DBError{Op: "get_node_by_id", Err: err}
	}
	return n, nil
}

// GetNodesByFile returns all nodes for a given file, ordered by start line.
func (s *Store) GetNodesByFile(filePath string) ([]model.Node, error) {
	rows, err := s.db.Query(`SELECT `+nodeColumns+` FROM nodes WHERE file_path = ? ORDER BY start_line`, filePath)
	if err != nil {
		return nil, &model.DBError{Op: "get_nodes_by_file", Err: err}
	}
	return collectNodes(rows, "get_nodes_by_file")
}

// GetNodesByKind returns all nodes of a given kind.
func (s *Store) GetNodesByKind(kind model.NodeKind) ([]model.Node, error) {
	rows, err := s.db.Query(`SELECT `+nodeColumns+` FROM nodes WHERE kind = ?`, kind.String())
	if err != nil {
		return nil, &model.DBError{Op: "get_nodes_by_kind", Err: err}
	}
	return collectNodes(rows, "get_nodes_by_kind")
}

// GetAllNodes returns every node in the store.
func (s *Store) GetAllNodes() ([]model.Node, error) {
	rows, err := s.db.Query(`SELECT ` + nodeColumns + ` FROM nodes`)
	if err != nil {
		return nil, &model.DBError{Op: "get_all_nodes", Err: err}
	}
	return collectNodes(rows, "get_all_nodes")
}

func collectNodes(rows *sql.Rows, op string) ([]model.Node, error) {
	defer func() { _ = rows.Close() }()
	var out []model.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, &model.DBError{Op: op, Err: err}
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.DBError{Op: op, Err: err}
	}
	return out, nil
}

// DeleteNodesByFile removes all nodes for a file and cascades to edges
// touching them, unresolved refs originating from them, and vectors, all
// within a single transaction (spec.md §4.1, §8 invariant 4).
func (s *Store) DeleteNodesByFile(filePath string) error {
	rows, err := s.db.Query(`SELECT id FROM nodes WHERE file_path = ?`, filePath)
	if err != nil {
		return &model.DBError{Op: "delete_nodes_by_file", Err: err}
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return &model.DBError{Op: "delete_nodes_by_file", Err: err}
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &model.DBError{Op: "delete_nodes_by_file", Err: err}
	}
	for _, id := range ids {
		if _, err := tx.Exec(`DELETE FROM edges WHERE source = ? OR target = ?`, id, id); err != nil {
			_ = tx.Rollback()
			return &model.DBError{Op: "delete_nodes_by_file", Err: err}
		}
		if _, err := tx.Exec(`DELETE FROM unresolved_refs WHERE from_node_id = ?`, id); err != nil {
			_ = tx.Rollback()
			return &model.DBError{Op: "delete_nodes_by_file", Err: err}
		}
		if _, err := tx.Exec(`DELETE FROM vectors WHERE node_id = ?`, id); err != nil {
			_ = tx.Rollback()
			return &model.DBError{Op: "delete_nodes_by_file", Err: err}
		}
	}
	if _, err := tx.Exec(`DELETE FROM nodes WHERE file_path = ?`, filePath); err != nil {
		_ = tx.Rollback()
		return &model.DBError{Op: "delete_nodes_by_file", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &model.DBError{Op: "delete_nodes_by_file", Err: err}
	}
	return nil
}
