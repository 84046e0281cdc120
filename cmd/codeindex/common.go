package main

import (
	"os"
	"path/filepath"

	"codeindex/internal/config"
	"codeindex/internal/store"
)

// resolveWorkspace returns the absolute project root, honoring -w/--workspace
// and falling back to the current directory.
func resolveWorkspace() (string, error) {
	ws := workspace
	if ws == "" {
		var err error
		ws, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	return filepath.Abs(ws)
}

// openStore opens the configured database, honoring --store and falling
// back to the per-user config location.
func openStore() (*store.Store, error) {
	path := storePath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		path = cfg.StorePath
	}
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "codeindex.db")
	}
	return store.Open(path)
}
