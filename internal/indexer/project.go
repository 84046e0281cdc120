package indexer

import (
	"os/exec"
	"path/filepath"
	"strings"

	"codeindex/internal/coreerr"
	"codeindex/internal/store"
)

// OpenProject registers path as an indexed root, or returns the existing
// Project if it was already registered. The display name
// defaults to the root's basename; the git remote, if any, is read via
// `git remote get-url origin`.
func (ix *Indexer) OpenProject(path string) (*store.Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, coreerr.New(coreerr.ValidationFailed, "open_project", path, err)
	}

	if existing, err := ix.store.GetProjectByPath(abs); err == nil {
		return existing, nil
	}

	proj := &store.Project{
		Path:      abs,
		Name:      filepath.Base(abs),
		GitRemote: gitRemote(abs),
	}
	return ix.store.PutProject(proj)
}

func gitRemote(root string) string {
	cmd := exec.Command("git", "remote", "get-url", "origin")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
