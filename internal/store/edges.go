package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ternarybob/codegraph/internal/model"
)

// InsertEdge inserts a single edge. Edges are a multiset keyed by
// (source, target, kind); callers are responsible for avoiding duplicates
// (spec.md §4.1).
func (s *Store) InsertEdge(e model.Edge) error {
	return s.InsertEdges([]model.Edge{e})
}

// InsertEdges inserts a batch of edges inside a single transaction.
func (s *Store) InsertEdges(edges []model.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return &model.DBError{Op: "insert_edges", Err: err}
	}
	stmt, err := tx.Prepare(`INSERT INTO edges (source, target, kind, line) VALUES (?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return &model.DBError{Op: "insert_edges", Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range edges {
		var line any
		if e.HasLine {
			line = e.Line
		}
		if _, err := stmt.Exec(e.Source, e.Target, e.Kind.String(), line); err != nil {
			_ = tx.Rollback()
			return &model.DBError{Op: "insert_edges", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &model.DBError{Op: "insert_edges", Err: err}
	}
	return nil
}

func scanEdge(row interface{ Scan(...any) error }) (model.Edge, error) {
	var e model.Edge
	var kind string
	var line sql.NullInt64
	if err := row.Scan(&e.Source, &e.Target, &kind, &line); err != nil {
		return model.Edge{}, err
	}
	e.Kind = model.ParseEdgeKind(kind)
	if line.Valid {
		e.Line = uint32(line.Int64)
		e.HasLine = true
	}
	return e, nil
}

// GetOutgoingEdges returns outgoing edges from source, optionally filtered
// by kind. An empty kinds slice means all kinds.
func (s *Store) GetOutgoingEdges(sourceID string, kinds []model.EdgeKind) ([]model.Edge, error) {
	return s.edgesByEndpoint("source", sourceID, kinds, "get_outgoing_edges")
}

// GetIncomingEdges returns incoming edges to target, optionally filtered by
// kind. An empty kinds slice means all kinds.
func (s *Store) GetIncomingEdges(targetID string, kinds []model.EdgeKind) ([]model.Edge, error) {
	return s.edgesByEndpoint("target", targetID, kinds, "get_incoming_edges")
}

func (s *Store) edgesByEndpoint(column, id string, kinds []model.EdgeKind, op string) ([]model.Edge, error) {
	var rows *sql.Rows
	var err error
	if len(kinds) == 0 {
		rows, err = s.db.Query(fmt.Sprintf(`SELECT source, target, kind, line FROM edges WHERE %s = ?`, column), id)
	} else {
		placeholders := make([]string, len(kinds))
		args := make([]any, 0, len(kinds)+1)
		args = append(args, id)
		for i, k := range kinds {
			placeholders[i] = "?"
			args = append(args, k.String())
		}
		q := fmt.Sprintf(`SELECT source, target, kind, line FROM edges WHERE %s = ? AND kind IN (%s)`,
			column, strings.Join(placeholders, ", "))
		rows, err = s.db.Query(q, args...)
	}
	if err != nil {
		return nil, &model.DBError{Op: op, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []model.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, &model.DBError{Op: op, Err: err}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.DBError{Op: op, Err: err}
	}
	return out, nil
}

// DeleteEdgesBySource deletes all edges originating from a given source node.
func (s *Store) DeleteEdgesBySource(sourceID string) error {
	if _, err := s.db.Exec(`DELETE FROM edges WHERE source = ?`, sourceID); err != nil {
		return &model.DBError{Op: "delete_edges_by_source", Err: err}
	}
	return nil
}
