package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"codeindex/internal/coreerr"
)

// PutProject inserts a project, or updates it in place if p.ID already
// exists (reopen/rescan). A missing ID is generated.
func (s *Store) PutProject(p *Project) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO projects (id, path, name, language, languages, git_remote, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path=excluded.path, name=excluded.name, language=excluded.language,
			languages=excluded.languages, git_remote=excluded.git_remote, updated_at=excluded.updated_at
	`, p.ID, p.Path, p.Name, string(p.Language), joinLanguages(p.Languages), p.GitRemote, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "put_project", p.ID, err)
	}
	return p, nil
}

// GetProjectByPath returns the project registered for an absolute path.
func (s *Store) GetProjectByPath(path string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRow(`SELECT id, path, name, language, languages, git_remote, created_at, updated_at
		FROM projects WHERE path = ?`, path)
	return scanProject(row)
}

// GetProject returns a project by id.
func (s *Store) GetProject(id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRow(`SELECT id, path, name, language, languages, git_remote, created_at, updated_at
		FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func scanProject(row *sql.Row) (*Project, error) {
	var p Project
	var lang, langs sql.NullString
	var remote sql.NullString
	if err := row.Scan(&p.ID, &p.Path, &p.Name, &lang, &langs, &remote, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, coreerr.New(coreerr.NotFound, "get_project", "", err)
		}
		return nil, coreerr.New(coreerr.StoreError, "get_project", "", err)
	}
	p.Language = Language(lang.String)
	p.GitRemote = remote.String
	p.Languages = splitLanguages(langs.String)
	return &p, nil
}

func joinLanguages(langs []Language) string {
	b, _ := json.Marshal(langs)
	return string(b)
}

func splitLanguages(s string) []Language {
	if s == "" {
		return nil
	}
	var out []Language
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		// Legacy comma-separated format, tolerated for older databases.
		for _, part := range strings.Split(s, ",") {
			if part != "" {
				out = append(out, Language(part))
			}
		}
	}
	return out
}
