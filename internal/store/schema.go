package store

import (
	"database/sql"
	"fmt"

	"codeindex/internal/logging"
)

// CurrentSchemaVersion documents the schema's evolution. Bump it and add a
// migration below whenever a column is added to an existing table.
//
// v1: initial projects/file_records/symbols/embeddings/tasks tables.
// v2: added task_dependencies, task_events, search_history.
// v3: added file_records.is_entrypoint.
const CurrentSchemaVersion = 3

var baseSchema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		language TEXT,
		languages TEXT,
		git_remote TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS file_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		hash TEXT NOT NULL,
		language TEXT,
		last_analyzed DATETIME NOT NULL,
		UNIQUE(project_id, path)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_file_records_project_path ON file_records(project_id, path)`,
	`CREATE TABLE IF NOT EXISTS symbols (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		detail TEXT,
		start_line INTEGER NOT NULL,
		start_col INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		end_col INTEGER NOT NULL,
		parent_id INTEGER,
		is_exported BOOLEAN NOT NULL DEFAULT 1,
		FOREIGN KEY(file_id) REFERENCES file_records(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_file_id ON symbols(file_id)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_parent_id ON symbols(parent_id)`,
	`CREATE TABLE IF NOT EXISTS embeddings (
		file_path TEXT NOT NULL,
		symbol_name TEXT NOT NULL,
		symbol_kind TEXT,
		description TEXT,
		code_snippet TEXT,
		vector BLOB,
		vector_length INTEGER NOT NULL,
		PRIMARY KEY(file_path, symbol_name)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		parent_id TEXT,
		title TEXT NOT NULL,
		description TEXT,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		complexity TEXT,
		estimated_effort INTEGER,
		actual_effort INTEGER,
		created_at DATETIME NOT NULL,
		started_at DATETIME,
		completed_at DATETIME,
		test_required BOOLEAN NOT NULL DEFAULT 0,
		metadata TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_parent_id ON tasks(parent_id)`,
	`CREATE TABLE IF NOT EXISTS task_dependencies (
		task_id TEXT NOT NULL,
		depends_on TEXT NOT NULL,
		type TEXT NOT NULL,
		PRIMARY KEY(task_id, depends_on, type)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_dependencies_task_id ON task_dependencies(task_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_dependencies_depends_on ON task_dependencies(depends_on)`,
	`CREATE TABLE IF NOT EXISTS task_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		message TEXT,
		timestamp DATETIME NOT NULL,
		metadata TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_events_task_id ON task_events(task_id)`,
	`CREATE TABLE IF NOT EXISTS search_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		results INTEGER NOT NULL,
		timestamp DATETIME NOT NULL
	)`,
}

// initialize creates every table and index if missing, then runs
// column-level migrations for databases created by older versions.
func (s *Store) initialize() error {
	timer := logging.StartTimer(logging.CategoryStore, "initialize")
	defer timer.Stop()

	for _, stmt := range baseSchema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("schema init: %w", err)
		}
	}
	return runMigrations(s.db)
}

// migration describes one forward-only, idempotent ALTER TABLE.
type migration struct {
	Table  string
	Column string
	Def    string
}

var pendingMigrations = []migration{
	{"file_records", "is_entrypoint", "BOOLEAN NOT NULL DEFAULT 0"},
}

// runMigrations applies pendingMigrations, skipping columns that already
// exist. It never fails the caller — a failed ALTER is logged and skipped,
// matching the store's forward-only, best-effort migration policy.
func runMigrations(db *sql.DB) error {
	log := logging.Get(logging.CategoryStore)
	for _, m := range pendingMigrations {
		if !tableExists(db, m.Table) {
			continue
		}
		if columnExists(db, m.Table, m.Column) {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.Exec(stmt); err != nil {
			log.Warn("migration failed for %s.%s: %v", m.Table, m.Column, err)
		}
	}
	return nil
}

func tableExists(db *sql.DB, table string) bool {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
	return err == nil && count > 0
}

func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}
