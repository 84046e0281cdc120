package retrieval

import (
	"math"
	"sort"

	"codeindex/internal/logging"
	"codeindex/internal/store"
)

// Retriever indexes Symbol descriptions into Embedding rows and answers
// ranked similarity queries over them.
type Retriever struct {
	store *store.Store
}

// New returns a Retriever backed by st.
func New(st *store.Store) *Retriever {
	return &Retriever{store: st}
}

// IndexProject reads every Symbol owned by projectID's files, builds a
// description and embedding vector for each, and upserts them into the
// Embedding table, overwriting stale rows on (file_path, symbol_name)
// conflict. Returns the number of symbols embedded.
func (r *Retriever) IndexProject(projectID string) (int, error) {
	timer := logging.StartTimer(logging.CategoryRetrieval, "IndexProject")
	defer timer.Stop()

	files, err := r.store.ListFileRecords(projectID)
	if err != nil {
		return 0, err
	}

	project, err := r.store.GetProject(projectID)
	if err != nil {
		return 0, err
	}

	var embeddings []*store.Embedding
	for _, f := range files {
		symbols, err := r.store.ListSymbolsByFile(f.ID)
		if err != nil {
			return 0, err
		}
		if len(symbols) == 0 {
			continue
		}
		lines, err := ReadLines(f.Path)
		if err != nil {
			// The file may have vanished between analyze and index; skip its
			// symbols rather than failing the whole run.
			logging.Get(logging.CategoryRetrieval).Warn("index_project: failed to read %s: %v", f.Path, err)
			continue
		}
		for _, sym := range symbols {
			desc, snippet := BuildDescription(sym, lines, project.Path, f.Path)
			embeddings = append(embeddings, &store.Embedding{
				FilePath:    f.Path,
				SymbolName:  sym.Name,
				SymbolKind:  sym.Kind,
				Description: desc,
				CodeSnippet: snippet,
				Vector:      Embed(desc),
			})
		}
	}

	if len(embeddings) == 0 {
		return 0, nil
	}
	return r.store.PutEmbeddings(embeddings)
}

// SearchHit is one ranked result from Search.
type SearchHit struct {
	FilePath    string
	SymbolName  string
	SymbolKind  store.SymbolKind
	Description string
	CodeSnippet string
	Similarity  float64
}

// Search returns up to limit Embedding rows ranked by cosine similarity to
// query, highest first. Ties are broken deterministically by file
// path then symbol name. An empty query still returns up to limit rows,
// all at similarity 0.
func (r *Retriever) Search(query string, limit int) ([]SearchHit, error) {
	timer := logging.StartTimer(logging.CategoryRetrieval, "Search")
	defer timer.Stop()

	embeddings, err := r.store.ListEmbeddings()
	if err != nil {
		return nil, err
	}

	qvec := Embed(query)
	hits := make([]SearchHit, 0, len(embeddings))
	for _, e := range embeddings {
		hits = append(hits, SearchHit{
			FilePath:    e.FilePath,
			SymbolName:  e.SymbolName,
			SymbolKind:  e.SymbolKind,
			Description: e.Description,
			CodeSnippet: e.CodeSnippet,
			Similarity:  cosineSimilarity(qvec, e.Vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].FilePath != hits[j].FilePath {
			return hits[i].FilePath < hits[j].FilePath
		}
		return hits[i].SymbolName < hits[j].SymbolName
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	if err := r.store.PutSearchHistory(query, len(hits)); err != nil {
		logging.Get(logging.CategoryRetrieval).Warn("failed to record search history: %v", err)
	}
	return hits, nil
}

// cosineSimilarity computes the normalized dot product of q and v. Either
// vector having zero norm yields similarity 0.
func cosineSimilarity(q, v []float32) float64 {
	if len(q) != len(v) {
		return 0
	}
	var dot, qNorm, vNorm float64
	for i := range q {
		dot += float64(q[i]) * float64(v[i])
		qNorm += float64(q[i]) * float64(q[i])
		vNorm += float64(v[i]) * float64(v[i])
	}
	if qNorm == 0 || vNorm == 0 {
		return 0
	}
	return dot / (math.Sqrt(qNorm) * math.Sqrt(vNorm))
}

// Stats is the {embeddings, total_searches, recent_queries} summary for
// stats().
type Stats struct {
	Embeddings    int
	TotalSearches int
	RecentQueries []string
}

// Stats returns the current retrieval summary.
func (r *Retriever) Stats() (*Stats, error) {
	count, err := r.store.CountEmbeddings()
	if err != nil {
		return nil, err
	}
	total, recent, err := r.store.SearchStats(10)
	if err != nil {
		return nil, err
	}
	return &Stats{Embeddings: count, TotalSearches: total, RecentQueries: recent}, nil
}
