package store

import (
	"encoding/json"
	"time"

	"codeindex/internal/coreerr"
)

// PutEvent appends a TaskEvent. Events are never updated or deleted.
func (s *Store) PutEvent(e *TaskEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return coreerr.New(coreerr.ValidationFailed, "put_event", e.TaskID, err)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	res, err := s.db.Exec(`
		INSERT INTO task_events (task_id, event_type, message, timestamp, metadata) VALUES (?, ?, ?, ?, ?)
	`, e.TaskID, e.EventType, e.Message, e.Timestamp, string(meta))
	if err != nil {
		return coreerr.New(coreerr.StoreError, "put_event", e.TaskID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// ListEvents returns every TaskEvent for a task, oldest first.
func (s *Store) ListEvents(taskID string) ([]*TaskEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT id, task_id, event_type, message, timestamp, metadata
		FROM task_events WHERE task_id = ? ORDER BY timestamp ASC, id ASC`, taskID)
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "list_events", taskID, err)
	}
	defer rows.Close()

	var out []*TaskEvent
	for rows.Next() {
		var e TaskEvent
		var metaStr string
		if err := rows.Scan(&e.ID, &e.TaskID, &e.EventType, &e.Message, &e.Timestamp, &metaStr); err != nil {
			return nil, coreerr.New(coreerr.StoreError, "scan_event", taskID, err)
		}
		if metaStr != "" {
			_ = json.Unmarshal([]byte(metaStr), &e.Metadata)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// PutSearchHistory records a semantic-retrieval query for stats().
func (s *Store) PutSearchHistory(query string, results int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO search_history (query, results, timestamp) VALUES (?, ?, ?)`,
		query, results, time.Now().UTC())
	if err != nil {
		return coreerr.New(coreerr.StoreError, "put_search_history", query, err)
	}
	return nil
}

// SearchStats returns {total searches, most recent queries} for stats().
func (s *Store) SearchStats(recentLimit int) (total int, recent []string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM search_history`).Scan(&total); err != nil {
		return 0, nil, coreerr.New(coreerr.StoreError, "search_stats", "", err)
	}
	rows, err := s.db.Query(`SELECT query FROM search_history ORDER BY timestamp DESC LIMIT ?`, recentLimit)
	if err != nil {
		return 0, nil, coreerr.New(coreerr.StoreError, "search_stats", "", err)
	}
	defer rows.Close()
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return 0, nil, coreerr.New(coreerr.StoreError, "search_stats", "", err)
		}
		recent = append(recent, q)
	}
	return total, recent, rows.Err()
}
