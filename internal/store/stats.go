package store

import (
	"time"

	"github.com/ternarybob/codegraph/internal/model"
)

// GetStats returns aggregate statistics about the code graph (spec.md §4.1).
func (s *Store) GetStats() (model.GraphStats, error) {
	var stats model.GraphStats
	stats.NodesByKind = map[string]uint64{}
	stats.EdgesByKind = map[string]uint64{}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&stats.NodeCount); err != nil {
		return model.GraphStats{}, &model.DBError{Op: "get_stats", Err: err}
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM edges`).Scan(&stats.EdgeCount); err != nil {
		return model.GraphStats{}, &model.DBError{Op: "get_stats", Err: err}
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&stats.FileCount); err != nil {
		return model.GraphStats{}, &model.DBError{Op: "get_stats", Err: err}
	}

	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM nodes GROUP BY kind`)
	if err != nil {
		return model.GraphStats{}, &model.DBError{Op: "get_stats", Err: err}
	}
	for rows.Next() {
		var kind string
		var count uint64
		if err := rows.Scan(&kind, &count); err != nil {
			_ = rows.Close()
			return model.GraphStats{}, &model.DBError{Op: "get_stats", Err: err}
		}
		stats.NodesByKind[kind] = count
	}
	_ = rows.Close()

	rows, err = s.db.Query(`SELECT kind, COUNT(*) FROM edges GROUP BY kind`)
	if err != nil {
		return model.GraphStats{}, &model.DBError{Op: "get_stats", Err: err}
	}
	for rows.Next() {
		var kind string
		var count uint64
		if err := rows.Scan(&kind, &count); err != nil {
			_ = rows.Close()
			return model.GraphStats{}, &model.DBError{Op: "get_stats", Err: err}
		}
		stats.EdgesByKind[kind] = count
	}
	_ = rows.Close()

	stats.DBSizeBytes = s.Size()
	stats.LastUpdated = time.Now().Unix()
	return stats, nil
}

// Clear removes all data from every table.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`
		DELETE FROM vectors;
		DELETE FROM unresolved_refs;
		DELETE FROM edges;
		DELETE FROM nodes;
		DELETE FROM files;
	`)
	if err != nil {
		return &model.DBError{Op: "clear", Err: err}
	}
	return nil
}
