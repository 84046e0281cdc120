package indexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"codeindex/internal/store"
)

func TestFallbackExtractJavaScript(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.js", `// helper
function foo() {}

export async function fetchData() {}

class Bar {
  baz() {}
}
`)
	symbols, err := FallbackExtract(path, store.LangJavaScript)
	require.NoError(t, err)
	require.Len(t, symbols, 3)

	byName := make(map[string]*store.Symbol)
	for _, s := range symbols {
		byName[s.Name] = s
	}
	require.Equal(t, store.KindFunction, byName["foo"].Kind)
	require.Equal(t, 2, byName["foo"].StartLine)
	require.Equal(t, store.KindFunction, byName["fetchData"].Kind)
	require.Equal(t, store.KindClass, byName["Bar"].Kind)
}

func TestFallbackExtractPython(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "m.py", `class Widget:
    def render(self):
        pass

def main():
    pass
`)
	symbols, err := FallbackExtract(path, store.LangPython)
	require.NoError(t, err)
	require.Len(t, symbols, 3)
	require.Equal(t, "Widget", symbols[0].Name)
	require.Equal(t, store.KindClass, symbols[0].Kind)
	require.Equal(t, "render", symbols[1].Name)
	require.Equal(t, store.KindFunction, symbols[1].Kind)
	require.Equal(t, "main", symbols[2].Name)
}

func TestFallbackExtractGo(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "x.go", `package x

func Exported() {}

func (r *Recv) Method() {}
`)
	symbols, err := FallbackExtract(path, store.LangGo)
	require.NoError(t, err)
	require.Len(t, symbols, 2)
	require.Equal(t, "Exported", symbols[0].Name)
	require.Equal(t, "Method", symbols[1].Name)
}

func TestFallbackExtractRust(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "lib.rs", `pub struct Point;

pub fn origin() -> Point { Point }

enum Shape { Circle }
`)
	symbols, err := FallbackExtract(path, store.LangRust)
	require.NoError(t, err)
	require.Len(t, symbols, 3)
	require.Equal(t, store.KindStruct, symbols[0].Kind)
	require.Equal(t, store.KindFunction, symbols[1].Kind)
	require.Equal(t, store.KindEnum, symbols[2].Kind)
}

func TestFallbackLeavesUnextractableAttributesEmpty(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.js", "function foo() {}\n")
	symbols, err := FallbackExtract(path, store.LangJavaScript)
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	require.Empty(t, symbols[0].Detail)
	require.Nil(t, symbols[0].ParentID)
	require.Zero(t, symbols[0].StartCol)
}
