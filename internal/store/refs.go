package store

import "github.com/ternarybob/codegraph/internal/model"

// InsertUnresolvedRef inserts a single unresolved reference.
func (s *Store) InsertUnresolvedRef(r model.UnresolvedRef) error {
	return s.InsertUnresolvedRefs([]model.UnresolvedRef{r})
}

// InsertUnresolvedRefs inserts a batch of unresolved references inside a
// single transaction.
func (s *Store) InsertUnresolvedRefs(refs []model.UnresolvedRef) error {
	if len(refs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return &model.DBError{Op: "insert_unresolved_refs", Err: err}
	}
	stmt, err := tx.Prepare(`INSERT INTO unresolved_refs
		(from_node_id, reference_name, reference_kind, line, col, file_path)
		VALUES (?,?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return &model.DBError{Op: "insert_unresolved_refs", Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range refs {
		if _, err := stmt.Exec(r.FromNodeID, r.ReferenceName, r.ReferenceKind.String(), r.Line, r.Column, r.FilePath); err != nil {
			_ = tx.Rollback()
			return &model.DBError{Op: "insert_unresolved_refs", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &model.DBError{Op: "insert_unresolved_refs", Err: err}
	}
	return nil
}

// GetUnresolvedRefs returns all unresolved references currently stored.
func (s *Store) GetUnresolvedRefs() ([]model.UnresolvedRef, error) {
	rows, err := s.db.Query(`SELECT from_node_id, reference_name, reference_kind, line, col, file_path FROM unresolved_refs`)
	if err != nil {
		return nil, &model.DBError{Op: "get_unresolved_refs", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []model.UnresolvedRef
	for rows.Next() {
		var r model.UnresolvedRef
		var kind string
		if err := rows.Scan(&r.FromNodeID, &r.ReferenceName, &kind, &r.Line, &r.Column, &r.FilePath); err != nil {
			return nil, &model.DBError{Op: "get_unresolved_refs", Err: err}
		}
		r.ReferenceKind = model.ParseEdgeKind(kind)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.DBError{Op: "get_unresolved_refs", Err: err}
	}
	return out, nil
}

// ClearUnresolvedRefs removes all unresolved references. Resolution itself
// never deletes them — only this explicit call, or a cascading file
// deletion, does (spec.md §3 invariant).
func (s *Store) ClearUnresolvedRefs() error {
	if _, err := s.db.Exec(`DELETE FROM unresolved_refs`); err != nil {
		return &model.DBError{Op: "clear_unresolved_refs", Err: err}
	}
	return nil
}
