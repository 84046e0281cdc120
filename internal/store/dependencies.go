package store

import (
	"codeindex/internal/coreerr"
)

// PutDependency inserts a dependency edge. Cycle rejection happens in
// internal/tasks before this is called — the store only enforces
// uniqueness and that it never silently duplicates an edge.
func (s *Store) PutDependency(d *Dependency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO task_dependencies (task_id, depends_on, type) VALUES (?, ?, ?)
	`, d.TaskID, d.DependsOn, string(d.Type))
	if err != nil {
		return coreerr.New(coreerr.StoreError, "add_dependency", d.TaskID, err)
	}
	return nil
}

// ListDependencies returns every dependency edge in the graph.
func (s *Store) ListDependencies() ([]*Dependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT task_id, depends_on, type FROM task_dependencies`)
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "list_dependencies", "", err)
	}
	defer rows.Close()

	var out []*Dependency
	for rows.Next() {
		var d Dependency
		if err := rows.Scan(&d.TaskID, &d.DependsOn, &d.Type); err != nil {
			return nil, coreerr.New(coreerr.StoreError, "scan_dependency", "", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// ListDependenciesOf returns the edges where task_id = taskID (what taskID
// depends on).
func (s *Store) ListDependenciesOf(taskID string) ([]*Dependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT task_id, depends_on, type FROM task_dependencies WHERE task_id = ?`, taskID)
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "list_dependencies_of", taskID, err)
	}
	defer rows.Close()

	var out []*Dependency
	for rows.Next() {
		var d Dependency
		if err := rows.Scan(&d.TaskID, &d.DependsOn, &d.Type); err != nil {
			return nil, coreerr.New(coreerr.StoreError, "scan_dependency", "", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// ListDependents returns the edges where depends_on = taskID (what
// depends on taskID).
func (s *Store) ListDependents(taskID string) ([]*Dependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT task_id, depends_on, type FROM task_dependencies WHERE depends_on = ?`, taskID)
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "list_dependents", taskID, err)
	}
	defer rows.Close()

	var out []*Dependency
	for rows.Next() {
		var d Dependency
		if err := rows.Scan(&d.TaskID, &d.DependsOn, &d.Type); err != nil {
			return nil, coreerr.New(coreerr.StoreError, "scan_dependency", "", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
