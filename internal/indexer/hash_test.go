package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashFileStableAcrossReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.js")
	require.NoError(t, os.WriteFile(path, []byte("function foo() {}\n"), 0644))

	h1, err := HashFile(path)
	require.NoError(t, err)
	h2, err := HashFile(path)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 32) // hex-encoded 128 bits
}

func TestHashFileChangesWithContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.js")
	require.NoError(t, os.WriteFile(path, []byte("function foo() {}\n"), 0644))
	h1, err := HashFile(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("function bar() {}\n"), 0644))
	h2, err := HashFile(path)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "missing.js"))
	require.Error(t, err)
}

func TestClassify(t *testing.T) {
	require.Equal(t, ChangeNew, Classify("", "abc", false))
	require.Equal(t, ChangeUnchanged, Classify("abc", "abc", true))
	require.Equal(t, ChangeChanged, Classify("abc", "def", true))
}
