package store

import (
	"database/sql"

	"codeindex/internal/coreerr"
)

// ListSymbolsByFile returns every Symbol owned by a file, ordered by start
// line then start column. Callers that need the hierarchy rebuild it from
// ParentID; see internal/indexer for the tree assembly used by
// file_outline.
func (s *Store) ListSymbolsByFile(fileID int64) ([]*Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT id, file_id, name, kind, detail, start_line, start_col, end_line, end_col, parent_id, is_exported
		FROM symbols WHERE file_id = ? ORDER BY start_line, start_col`, fileID)
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "list_symbols", "", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SymbolCounts returns {total, functionsAndMethods, classesAndInterfaces}
// for project_structure's summary.
func (s *Store) SymbolCounts(projectID string) (total, funcsAndMethods, classesAndInterfaces int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRow(`
		SELECT
			COUNT(*),
			SUM(CASE WHEN sy.kind IN ('function','method') THEN 1 ELSE 0 END),
			SUM(CASE WHEN sy.kind IN ('class','interface') THEN 1 ELSE 0 END)
		FROM symbols sy
		JOIN file_records fr ON fr.id = sy.file_id
		WHERE fr.project_id = ?
	`, projectID)
	var totalN, funcN, classN sql.NullInt64
	if scanErr := row.Scan(&totalN, &funcN, &classN); scanErr != nil {
		return 0, 0, 0, coreerr.New(coreerr.StoreError, "symbol_counts", projectID, scanErr)
	}
	return int(totalN.Int64), int(funcN.Int64), int(classN.Int64), nil
}

func scanSymbols(rows *sql.Rows) ([]*Symbol, error) {
	var out []*Symbol
	for rows.Next() {
		var sym Symbol
		var detail sql.NullString
		var parentID sql.NullInt64
		if err := rows.Scan(&sym.ID, &sym.FileID, &sym.Name, &sym.Kind, &detail,
			&sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol, &parentID, &sym.IsExported); err != nil {
			return nil, coreerr.New(coreerr.StoreError, "scan_symbol", "", err)
		}
		sym.Detail = detail.String
		if parentID.Valid {
			v := parentID.Int64
			sym.ParentID = &v
		}
		out = append(out, &sym)
	}
	return out, rows.Err()
}
