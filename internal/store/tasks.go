package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"codeindex/internal/coreerr"
)

// PutTask inserts a new task row. Duplicate ids are rejected as Conflict —
// the Task Graph Engine is responsible for generating ids when absent.
func (s *Store) PutTask(t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return coreerr.New(coreerr.ValidationFailed, "create_task", t.ID, err)
	}
	var parentID sql.NullString
	if t.ParentID != "" {
		parentID = sql.NullString{String: t.ParentID, Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT INTO tasks (id, parent_id, title, description, type, status, priority, complexity,
			estimated_effort, actual_effort, created_at, started_at, completed_at, test_required, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, parentID, t.Title, t.Description, string(t.Type), string(t.Status), t.Priority, string(t.Complexity),
		nullableInt(t.EstimatedEffort), nullableInt(t.ActualEffort), t.CreatedAt, t.StartedAt, t.CompletedAt, t.TestRequired, string(meta))
	if err != nil {
		if isUniqueViolation(err) {
			return coreerr.New(coreerr.Conflict, "create_task", t.ID, err)
		}
		return coreerr.New(coreerr.StoreError, "create_task", t.ID, err)
	}
	return nil
}

// UpdateTask persists an in-place update to an existing task row. Callers
// (internal/tasks) own transition validity; this is a raw write.
func (s *Store) UpdateTask(t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return coreerr.New(coreerr.ValidationFailed, "update_task", t.ID, err)
	}
	res, err := s.db.Exec(`
		UPDATE tasks SET status=?, priority=?, complexity=?, estimated_effort=?, actual_effort=?,
			started_at=?, completed_at=?, metadata=?
		WHERE id = ?
	`, string(t.Status), t.Priority, string(t.Complexity), nullableInt(t.EstimatedEffort), nullableInt(t.ActualEffort),
		t.StartedAt, t.CompletedAt, string(meta), t.ID)
	if err != nil {
		return coreerr.New(coreerr.StoreError, "update_task", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return coreerr.New(coreerr.StoreError, "update_task", t.ID, err)
	}
	if n == 0 {
		return coreerr.New(coreerr.NotFound, "update_task", t.ID, nil)
	}
	return nil
}

// GetTask returns a task by id.
func (s *Store) GetTask(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRow(`SELECT id, parent_id, title, description, type, status, priority, complexity,
		estimated_effort, actual_effort, created_at, started_at, completed_at, test_required, metadata
		FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasks returns every task, ordered by creation time.
func (s *Store) ListTasks() ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT id, parent_id, title, description, type, status, priority, complexity,
		estimated_effort, actual_effort, created_at, started_at, completed_at, test_required, metadata
		FROM tasks ORDER BY created_at ASC`)
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "list_tasks", "", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListTasksByParent returns a task's direct children.
func (s *Store) ListTasksByParent(parentID string) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT id, parent_id, title, description, type, status, priority, complexity,
		estimated_effort, actual_effort, created_at, started_at, completed_at, test_required, metadata
		FROM tasks WHERE parent_id = ?`, parentID)
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "list_tasks_by_parent", parentID, err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullableInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}

func scanTask(row *sql.Row) (*Task, error) {
	var t Task
	var parentID, description, complexity, metaStr sql.NullString
	var estEffort, actEffort sql.NullInt64
	var started, completed sql.NullTime

	err := row.Scan(&t.ID, &parentID, &t.Title, &description, &t.Type, &t.Status, &t.Priority, &complexity,
		&estEffort, &actEffort, &t.CreatedAt, &started, &completed, &t.TestRequired, &metaStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, coreerr.New(coreerr.NotFound, "get_task", t.ID, err)
		}
		return nil, coreerr.New(coreerr.StoreError, "get_task", t.ID, err)
	}
	applyTaskNulls(&t, parentID, description, complexity, metaStr, estEffort, actEffort, started, completed)
	return &t, nil
}

func scanTaskRows(rows *sql.Rows) (*Task, error) {
	var t Task
	var parentID, description, complexity, metaStr sql.NullString
	var estEffort, actEffort sql.NullInt64
	var started, completed sql.NullTime

	err := rows.Scan(&t.ID, &parentID, &t.Title, &description, &t.Type, &t.Status, &t.Priority, &complexity,
		&estEffort, &actEffort, &t.CreatedAt, &started, &completed, &t.TestRequired, &metaStr)
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "scan_task", "", err)
	}
	applyTaskNulls(&t, parentID, description, complexity, metaStr, estEffort, actEffort, started, completed)
	return &t, nil
}

func applyTaskNulls(t *Task, parentID, description, complexity, metaStr sql.NullString,
	estEffort, actEffort sql.NullInt64, started, completed sql.NullTime) {
	t.ParentID = parentID.String
	t.Description = description.String
	t.Complexity = TaskComplexity(complexity.String)
	t.EstimatedEffort = int(estEffort.Int64)
	t.ActualEffort = int(actEffort.Int64)
	if started.Valid {
		v := started.Time
		t.StartedAt = &v
	}
	if completed.Valid {
		v := completed.Time
		t.CompletedAt = &v
	}
	if metaStr.Valid && metaStr.String != "" {
		_ = json.Unmarshal([]byte(metaStr.String), &t.Metadata)
	}
}
