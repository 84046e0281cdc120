package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"codeindex/internal/store"
)

func writeFile(t *testing.T, root string, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestScanFindsRecognizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.js", "function a() {}\n")
	writeFile(t, root, "src/b.ts", "export function b() {}\n")
	writeFile(t, root, "README.md", "# readme\n")

	files, counts, err := Scan(root, nil)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, 1, counts[store.LangJavaScript])
	require.Equal(t, 1, counts[store.LangTypeScript])
	for _, f := range files {
		require.True(t, filepath.IsAbs(f.Path))
		require.Greater(t, f.Size, int64(0))
	}
}

func TestScanSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.js", "function a() {}\n")
	writeFile(t, root, "node_modules/dep/index.js", "module.exports = {}\n")
	writeFile(t, root, ".git/hooks/pre-commit.py", "pass\n")
	writeFile(t, root, "vendor/lib.go", "package lib\n")
	writeFile(t, root, "target/debug/gen.rs", "fn gen() {}\n")

	files, counts, err := Scan(root, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, filepath.Join(root, "a.js"), files[0].Path)
	require.Zero(t, counts[store.LangGo])
	require.Zero(t, counts[store.LangRust])
}

func TestScanHonorsExtraExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.js", "function a() {}\n")
	writeFile(t, root, "generated/g.js", "function g() {}\n")

	files, _, err := Scan(root, []string{"generated"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, filepath.Join(root, "a.js"), files[0].Path)
}

func TestScanSkipsSymlinksEscapingRoot(t *testing.T) {
	outside := t.TempDir()
	writeFile(t, outside, "escape.js", "function escape() {}\n")

	root := t.TempDir()
	writeFile(t, root, "a.js", "function a() {}\n")
	link := filepath.Join(root, "link.js")
	if err := os.Symlink(filepath.Join(outside, "escape.js"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	files, _, err := Scan(root, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, filepath.Join(root, "a.js"), files[0].Path)
}
