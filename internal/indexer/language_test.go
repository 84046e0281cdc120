package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"codeindex/internal/store"
)

func TestLanguageOf(t *testing.T) {
	require.Equal(t, store.LangJavaScript, LanguageOf("a.js"))
	require.Equal(t, store.LangJavaScript, LanguageOf("a.mjs"))
	require.Equal(t, store.LangTypeScript, LanguageOf("src/a.tsx"))
	require.Equal(t, store.LangPython, LanguageOf("a.py"))
	require.Equal(t, store.LangGo, LanguageOf("cmd/main.go"))
	require.Equal(t, store.LangRust, LanguageOf("lib.rs"))
	require.Equal(t, store.Language(""), LanguageOf("README.md"))
	require.Equal(t, store.Language(""), LanguageOf("Makefile"))
}

func TestDetectLanguagesRootIndicatorWins(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0644))

	// More Python files than Go files, but the marker is authoritative.
	primary, detected := DetectLanguages(root, map[store.Language]int{
		store.LangPython: 5,
		store.LangGo:     1,
	})
	require.Equal(t, store.LangGo, primary)
	require.ElementsMatch(t, []store.Language{store.LangPython, store.LangGo}, detected)
}

func TestDetectLanguagesMarkerTieBrokenByFileCount(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}\n"), 0644))

	primary, _ := DetectLanguages(root, map[store.Language]int{
		store.LangGo:         2,
		store.LangJavaScript: 7,
	})
	require.Equal(t, store.LangJavaScript, primary)
}

func TestDetectLanguagesFallsBackToCensus(t *testing.T) {
	root := t.TempDir()
	primary, detected := DetectLanguages(root, map[store.Language]int{
		store.LangRust: 3,
		store.LangRuby: 1,
	})
	require.Equal(t, store.LangRust, primary)
	require.Len(t, detected, 2)
}

func TestIsEntrypoint(t *testing.T) {
	require.True(t, IsEntrypoint("/repo/src/index.js"))
	require.True(t, IsEntrypoint("/repo/main.go"))
	require.True(t, IsEntrypoint("/repo/app/__main__.py"))
	require.True(t, IsEntrypoint("/repo/bin/migrate.rb"))
	require.False(t, IsEntrypoint("/repo/src/util.js"))
	require.False(t, IsEntrypoint("/repo/binary/util.js"))
}
