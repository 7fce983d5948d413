package store

import (
	"database/sql"
	"strings"

	"github.com/ternarybob/codegraph/internal/model"
)

// SearchNodes implements the two-tier search of spec.md §4.1: an FTS5
// prefix match first; if that returns nothing, a substring LIKE fallback
// with a constant score of 1.0.
func (s *Store) SearchNodes(query string, limit int) ([]model.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	ftsQuery := ftsPrefixQuery(query)
	rows, err := s.db.Query(`
		SELECT n.id, n.kind, n.name, n.qualified_name, n.file_path,
		       n.start_line, n.end_line, n.start_column, n.end_column,
		       n.docstring, n.signature, n.visibility, n.is_async, n.updated_at,
		       rank
		FROM nodes_fts
		JOIN nodes n ON nodes_fts.rowid = n.rowid
		WHERE nodes_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, ftsQuery, limit)
	if err == nil {
		results, scanErr := collectSearchResults(rows)
		if scanErr != nil {
			return nil, &model.DBError{Op: "search_nodes", Err: scanErr}
		}
		if len(results) > 0 {
			return results, nil
		}
	}

	// Fallback: LIKE substring match across the same columns.
	likePattern := "%" + query + "%"
	rows, err = s.db.Query(`SELECT `+nodeColumns+` FROM nodes
		WHERE name LIKE ? OR qualified_name LIKE ? OR docstring LIKE ? OR signature LIKE ?
		LIMIT ?`, likePattern, likePattern, likePattern, likePattern, limit)
	if err != nil {
		return nil, &model.DBError{Op: "search_nodes", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []model.SearchResult
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, &model.DBError{Op: "search_nodes", Err: err}
		}
		out = append(out, model.SearchResult{Node: n, Score: 1.0})
	}
	if err := rows.Err(); err != nil {
		return nil, &model.DBError{Op: "search_nodes", Err: err}
	}
	return out, nil
}

// ftsPrefixQuery builds an FTS5 MATCH expression performing a prefix match
// on every whitespace-separated token, quoting each to tolerate tokens
// FTS5 would otherwise treat as operators.
func ftsPrefixQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return `""*`
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"*`
	}
	return strings.Join(parts, " ")
}

func collectSearchResults(rows *sql.Rows) ([]model.SearchResult, error) {
	defer func() { _ = rows.Close() }()
	var out []model.SearchResult
	for rows.Next() {
		var n model.Node
		var kind, vis string
		var isAsync int
		var docstring, signature sql.NullString
		var rank float64
		if err := rows.Scan(&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath,
			&n.StartLine, &n.EndLine, &n.StartColumn, &n.EndColumn,
			&docstring, &signature, &vis, &isAsync, &n.UpdatedAt, &rank); err != nil {
			return nil, err
		}
		n.Kind = model.ParseNodeKind(kind)
		n.Visibility = model.ParseVisibility(vis)
		n.IsAsync = isAsync != 0
		n.Docstring = docstring.String
		n.Signature = signature.String
		// FTS5 rank is a negative number where closer-to-zero is a better
		// match; negate so higher is better, matching the rest of the API.
		out = append(out, model.SearchResult{Node: n, Score: -rank})
	}
	return out, rows.Err()
}
