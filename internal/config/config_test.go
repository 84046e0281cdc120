package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Executor.MaxConcurrency)
	require.Equal(t, 300_000, cfg.Executor.TaskTimeoutMs)
	require.Equal(t, 30_000, cfg.Executor.LspTimeoutMs)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := Default()
	cfg.StorePath = "/tmp/x.db"
	cfg.Executor.MaxConcurrency = 8
	require.NoError(t, Save(cfg))

	loaded, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/x.db", loaded.StorePath)
	require.Equal(t, 8, loaded.Executor.MaxConcurrency)
}

func TestLoadScannerOverlay(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codeindex.yaml"), []byte("exclude_dirs:\n  - tmp\n  - generated\n"), 0644))

	overlay, err := LoadScannerOverlay(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"tmp", "generated"}, overlay.ExcludeDirs)
}

func TestLoadScannerOverlayMissingIsNotError(t *testing.T) {
	overlay, err := LoadScannerOverlay(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, overlay.ExcludeDirs)
}
