package store

import (
	"database/sql"
	"errors"
	"time"

	"codeindex/internal/coreerr"
)

// GetFileRecord returns the FileRecord for a project-relative absolute path.
func (s *Store) GetFileRecord(projectID, path string) (*FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRow(`SELECT id, project_id, path, size, hash, language, is_entrypoint, last_analyzed
		FROM file_records WHERE project_id = ? AND path = ?`, projectID, path)
	return scanFileRecord(row)
}

// FindFileRecordByPath looks up a FileRecord by absolute path without
// knowing which project owns it, for collaborators (like file_outline)
// that only have a path. When the same absolute path was indexed under
// more than one project, the most recently analyzed record wins.
func (s *Store) FindFileRecordByPath(path string) (*FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRow(`SELECT id, project_id, path, size, hash, language, is_entrypoint, last_analyzed
		FROM file_records WHERE path = ? ORDER BY last_analyzed DESC LIMIT 1`, path)
	return scanFileRecord(row)
}

// GetFileRecordByID returns a FileRecord by its row id.
func (s *Store) GetFileRecordByID(id int64) (*FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRow(`SELECT id, project_id, path, size, hash, language, is_entrypoint, last_analyzed
		FROM file_records WHERE id = ?`, id)
	return scanFileRecord(row)
}

// ListFileRecords returns every FileRecord owned by a project.
func (s *Store) ListFileRecords(projectID string) ([]*FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT id, project_id, path, size, hash, language, is_entrypoint, last_analyzed
		FROM file_records WHERE project_id = ? ORDER BY path`, projectID)
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "list_file_records", projectID, err)
	}
	defer rows.Close()

	var out []*FileRecord
	for rows.Next() {
		var f FileRecord
		var lang sql.NullString
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Path, &f.Size, &f.Hash, &lang, &f.IsEntrypoint, &f.LastAnalyzed); err != nil {
			return nil, coreerr.New(coreerr.StoreError, "list_file_records", projectID, err)
		}
		f.Language = Language(lang.String)
		out = append(out, &f)
	}
	return out, rows.Err()
}

// PutFileRecordWithSymbols upserts a FileRecord and atomically replaces its
// owned Symbols in a single transaction, so a concurrent reader sees the
// pre-update or post-update state, never a mix.
func (s *Store) PutFileRecordWithSymbols(f *FileRecord, symbols []*Symbol) (*FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "put_file_record", f.Path, err)
	}
	defer tx.Rollback()

	if f.LastAnalyzed.IsZero() {
		f.LastAnalyzed = time.Now().UTC()
	}

	_, err = tx.Exec(`
		INSERT INTO file_records (project_id, path, size, hash, language, is_entrypoint, last_analyzed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, path) DO UPDATE SET
			size=excluded.size, hash=excluded.hash, language=excluded.language,
			is_entrypoint=excluded.is_entrypoint, last_analyzed=excluded.last_analyzed
	`, f.ProjectID, f.Path, f.Size, f.Hash, string(f.Language), f.IsEntrypoint, f.LastAnalyzed)
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "put_file_record", f.Path, err)
	}

	// LastInsertId is not used: when the upsert updates an existing row,
	// SQLite leaves it at the rowid of the previous insert.
	var fileID int64
	row := tx.QueryRow(`SELECT id FROM file_records WHERE project_id = ? AND path = ?`, f.ProjectID, f.Path)
	if err := row.Scan(&fileID); err != nil {
		return nil, coreerr.New(coreerr.StoreError, "put_file_record", f.Path, err)
	}
	f.ID = fileID

	if _, err := tx.Exec(`DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
		return nil, coreerr.New(coreerr.StoreError, "replace_symbols", f.Path, err)
	}

	// parent_id references must be remapped from caller-local indices to
	// persisted row ids; a nil localToRow entry means "insert without
	// parent, fix up in a second pass" since symbols may reference a
	// parent not yet inserted within this slice ordering.
	localToRow := make(map[int64]int64, len(symbols))
	for i, sym := range symbols {
		res, err := tx.Exec(`
			INSERT INTO symbols (file_id, name, kind, detail, start_line, start_col, end_line, end_col, parent_id, is_exported)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)
		`, fileID, sym.Name, string(sym.Kind), sym.Detail, sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol, sym.IsExported)
		if err != nil {
			return nil, coreerr.New(coreerr.StoreError, "insert_symbol", sym.Name, err)
		}
		rowID, err := res.LastInsertId()
		if err != nil {
			return nil, coreerr.New(coreerr.StoreError, "insert_symbol", sym.Name, err)
		}
		localToRow[int64(i)] = rowID
		sym.ID = rowID
	}
	for i, sym := range symbols {
		if sym.ParentID == nil {
			continue
		}
		parentRow, ok := localToRow[*sym.ParentID]
		if !ok {
			continue
		}
		if _, err := tx.Exec(`UPDATE symbols SET parent_id = ? WHERE id = ?`, parentRow, localToRow[int64(i)]); err != nil {
			return nil, coreerr.New(coreerr.StoreError, "link_symbol_parent", sym.Name, err)
		}
		sym.ParentID = &parentRow
	}

	if err := tx.Commit(); err != nil {
		return nil, coreerr.New(coreerr.StoreError, "put_file_record", f.Path, err)
	}
	return f, nil
}

// DeleteFileRecord removes a FileRecord and (via ON DELETE CASCADE) its
// owned Symbols. Called when a scan observes the path is gone from disk.
func (s *Store) DeleteFileRecord(projectID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM file_records WHERE project_id = ? AND path = ?`, projectID, path)
	if err != nil {
		return coreerr.New(coreerr.StoreError, "delete_file_record", path, err)
	}
	return nil
}

func scanFileRecord(row *sql.Row) (*FileRecord, error) {
	var f FileRecord
	var lang sql.NullString
	if err := row.Scan(&f.ID, &f.ProjectID, &f.Path, &f.Size, &f.Hash, &lang, &f.IsEntrypoint, &f.LastAnalyzed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, coreerr.New(coreerr.NotFound, "get_file_record", f.Path, err)
		}
		return nil, coreerr.New(coreerr.StoreError, "get_file_record", f.Path, err)
	}
	f.Language = Language(lang.String)
	return &f, nil
}
