package retrieval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"codeindex/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRetriever(t *testing.T) (*Retriever, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st), st
}

func seedEmbedding(t *testing.T, st *store.Store, path, name, desc string) {
	t.Helper()
	_, err := st.PutEmbeddings([]*store.Embedding{{
		FilePath:    path,
		SymbolName:  name,
		SymbolKind:  store.KindFunction,
		Description: desc,
		Vector:      Embed(desc),
	}})
	require.NoError(t, err)
}

func TestSearchRanksExactConceptHighest(t *testing.T) {
	// The "authenticate" and "update" symbols outrank a
	// row whose description shares no keyword with the query.
	r, st := newTestRetriever(t)
	seedEmbedding(t, st, "/repo/auth.js", "authenticateUser", "authenticate user with password")
	seedEmbedding(t, st, "/repo/profile.js", "renderProfile", "render user profile")
	seedEmbedding(t, st, "/repo/settings.js", "updateSettings", "update user settings")

	hits, err := r.Search("update authentication", 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	topNames := []string{hits[0].SymbolName, hits[1].SymbolName}
	require.ElementsMatch(t, []string{"authenticateUser", "updateSettings"}, topNames)
	require.Greater(t, hits[0].Similarity, 0.0)
	require.Greater(t, hits[1].Similarity, 0.0)
	require.Equal(t, "renderProfile", hits[2].SymbolName)
	require.Greater(t, hits[1].Similarity, hits[2].Similarity)
}

func TestSearchRespectsLimit(t *testing.T) {
	r, st := newTestRetriever(t)
	seedEmbedding(t, st, "/repo/a.js", "a", "parse config file")
	seedEmbedding(t, st, "/repo/b.js", "b", "parse query string")
	seedEmbedding(t, st, "/repo/c.js", "c", "parse request body")

	hits, err := r.Search("parse", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestSearchEmptyQuery(t *testing.T) {
	// An empty query still returns up to limit rows, all at similarity 0.
	r, st := newTestRetriever(t)
	seedEmbedding(t, st, "/repo/a.js", "a", "authenticate user with password")
	seedEmbedding(t, st, "/repo/b.js", "b", "render user profile")

	hits, err := r.Search("", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		require.Zero(t, h.Similarity)
	}
}

func TestSearchTieBreakIsDeterministic(t *testing.T) {
	r, st := newTestRetriever(t)
	seedEmbedding(t, st, "/repo/b.js", "b", "no overlap at all")
	seedEmbedding(t, st, "/repo/a.js", "a", "nothing shared either")

	first, err := r.Search("", 10)
	require.NoError(t, err)
	second, err := r.Search("", 10)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, "/repo/a.js", first[0].FilePath)
}

func TestIndexProjectBuildsEmbeddings(t *testing.T) {
	r, st := newTestRetriever(t)
	proj, root := seedIndexedProject(t, st)

	count, err := r.IndexProject(proj.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	hits, err := r.Search("authenticate password", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "login", hits[0].SymbolName)
	require.Equal(t, filepath.Join(root, "auth.js"), hits[0].FilePath)
	require.Contains(t, hits[0].Description, "Located in: auth.js")
	require.NotEmpty(t, hits[0].CodeSnippet)
}

func TestIndexProjectIdempotent(t *testing.T) {
	// Running IndexProject twice yields the same rows.
	r, st := newTestRetriever(t)
	proj, _ := seedIndexedProject(t, st)

	n1, err := r.IndexProject(proj.ID)
	require.NoError(t, err)
	rows1, err := st.ListEmbeddings()
	require.NoError(t, err)

	n2, err := r.IndexProject(proj.ID)
	require.NoError(t, err)
	rows2, err := st.ListEmbeddings()
	require.NoError(t, err)

	require.Equal(t, n1, n2)
	if diff := cmp.Diff(rows1, rows2); diff != "" {
		t.Fatalf("embedding rows changed on re-index (-first +second):\n%s", diff)
	}
}

func TestStatsTracksSearches(t *testing.T) {
	r, st := newTestRetriever(t)
	seedEmbedding(t, st, "/repo/a.js", "a", "authenticate user")

	_, err := r.Search("auth", 5)
	require.NoError(t, err)
	_, err = r.Search("render", 5)
	require.NoError(t, err)

	stats, err := r.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.Embeddings)
	require.Equal(t, 2, stats.TotalSearches)
	require.Contains(t, stats.RecentQueries, "auth")
	require.Contains(t, stats.RecentQueries, "render")
}

// seedIndexedProject registers a project over a real temp directory with
// one analyzed file carrying two symbols, the shape IndexProject consumes.
func seedIndexedProject(t *testing.T, st *store.Store) (*store.Project, string) {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "auth.js")
	content := "// Authenticates a user against the password store.\n" +
		"function login(user, pass) {\n" +
		"}\n" +
		"\n" +
		"function logout(session) {\n" +
		"}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	proj, err := st.PutProject(&store.Project{Path: root, Name: "demo", Language: store.LangJavaScript})
	require.NoError(t, err)

	symbols := []*store.Symbol{
		{Name: "login", Kind: store.KindFunction, StartLine: 2, EndLine: 3, IsExported: true},
		{Name: "logout", Kind: store.KindFunction, StartLine: 5, EndLine: 6, IsExported: true},
	}
	_, err = st.PutFileRecordWithSymbols(&store.FileRecord{
		ProjectID: proj.ID,
		Path:      path,
		Size:      int64(len(content)),
		Hash:      "0123456789abcdef0123456789abcdef",
		Language:  store.LangJavaScript,
	}, symbols)
	require.NoError(t, err)
	return proj, root
}
