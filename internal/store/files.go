package store

import (
	"database/sql"

	"github.com/ternarybob/codegraph/internal/model"
)

// UpsertFile inserts or replaces a file record, keyed by path.
func (s *Store) UpsertFile(f model.FileRecord) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO files
		(path, content_hash, fast_hash, size, modified_at, indexed_at, node_count)
		VALUES (?,?,?,?,?,?,?)`,
		f.Path, f.ContentHash, f.FastHash, f.Size, f.ModifiedAt, f.IndexedAt, f.NodeCount)
	if err != nil {
		return &model.DBError{Op: "upsert_file", Err: err}
	}
	return nil
}

func scanFile(row interface{ Scan(...any) error }) (model.FileRecord, error) {
	var f model.FileRecord
	if err := row.Scan(&f.Path, &f.ContentHash, &f.FastHash, &f.Size, &f.ModifiedAt, &f.IndexedAt, &f.NodeCount); err != nil {
		return model.FileRecord{}, err
	}
	return f, nil
}

// GetFile retrieves a file record by path. Returns model.ErrFileNotFound if
// no such file is tracked.
func (s *Store) GetFile(path string) (model.FileRecord, error) {
	row := s.db.QueryRow(`SELECT path, content_hash, fast_hash, size, modified_at, indexed_at, node_count
		FROM files WHERE path = ?`, path)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return model.FileRecord{}, model.ErrFileNotFound
	}
	if err != nil {
		return model.FileRecord{}, &model.DBError{Op: "get_file", Err: err}
	}
	return f, nil
}

// GetAllFiles returns all tracked file records.
func (s *Store) GetAllFiles() ([]model.FileRecord, error) {
	rows, err := s.db.Query(`SELECT path, content_hash, fast_hash, size, modified_at, indexed_at, node_count FROM files`)
	if err != nil {
		return nil, &model.DBError{Op: "get_all_files", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []model.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, &model.DBError{Op: "get_all_files", Err: err}
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.DBError{Op: "get_all_files", Err: err}
	}
	return out, nil
}

// DeleteFile deletes a file record, cascading to its nodes first.
func (s *Store) DeleteFile(path string) error {
	if err := s.DeleteNodesByFile(path); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return &model.DBError{Op: "delete_file", Err: err}
	}
	return nil
}
