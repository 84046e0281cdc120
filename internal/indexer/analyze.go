// Package indexer implements the Incremental Code Index: language
// detection, file walking, hash-based change detection, and LSP-driven
// symbol extraction with a regex fallback.
package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"codeindex/internal/config"
	"codeindex/internal/coreerr"
	"codeindex/internal/indexer/lsp"
	"codeindex/internal/logging"
	"codeindex/internal/store"
)

// extractWorkers bounds the number of files hashed/extracted concurrently
// within a single analyze() call.
const extractWorkers = 8

// AnalysisReport is the outcome of one analyze() call.
type AnalysisReport struct {
	New           int
	Changed       int
	Unchanged     int
	Deleted       int
	FilesAnalyzed int
	SymbolsFound  int
	Errors        int
}

// atomicReport accumulates AnalysisReport counts from concurrent workers
// behind a mutex; Analyze converts it to a plain AnalysisReport once every
// worker has settled.
type atomicReport struct {
	mu     sync.Mutex
	report AnalysisReport
}

func (r *atomicReport) add(field *int, n int) {
	r.mu.Lock()
	*field += n
	r.mu.Unlock()
}

// Indexer owns the persistent store and per-project file caches used to
// answer ICI operations.
type Indexer struct {
	store  *store.Store
	mu     sync.Mutex
	caches map[string]*FileCache // keyed by project root
}

// New returns an Indexer backed by st.
func New(st *store.Store) *Indexer {
	return &Indexer{store: st, caches: make(map[string]*FileCache)}
}

func (ix *Indexer) cacheFor(root string) *FileCache {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	c, ok := ix.caches[root]
	if !ok {
		c = NewFileCache(root)
		ix.caches[root] = c
	}
	return c
}

// Analyze performs one incremental scan of root for projectID, extracting
// symbols for every new or changed file and removing records for files
// that have disappeared from disk.
func (ix *Indexer) Analyze(ctx context.Context, projectID, root string) (*AnalysisReport, error) {
	timer := logging.StartTimer(logging.CategoryIndexer, "Analyze")
	defer timer.Stop()
	log := logging.Get(logging.CategoryIndexer)

	if !filepath.IsAbs(root) {
		return nil, coreerr.New(coreerr.ValidationFailed, "analyze", root, fmt.Errorf("root must be absolute"))
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, coreerr.New(coreerr.IoError, "analyze", root, fmt.Errorf("root must be a readable directory"))
	}

	overlay, _ := config.LoadScannerOverlay(root)
	scanned, counts, err := Scan(root, overlay.ExcludeDirs)
	if err != nil {
		return nil, coreerr.New(coreerr.IoError, "analyze", root, err)
	}

	primary, detected := DetectLanguages(root, counts)
	if proj, err := ix.store.GetProject(projectID); err == nil {
		proj.Language = primary
		proj.Languages = detected
		if _, err := ix.store.PutProject(proj); err != nil {
			log.Warn("failed to update project languages: %v", err)
		}
	}

	existing, err := ix.store.ListFileRecords(projectID)
	if err != nil {
		return nil, err
	}
	existingByPath := make(map[string]*store.FileRecord, len(existing))
	for _, f := range existing {
		existingByPath[f.Path] = f
	}

	seen := make(map[string]bool, len(scanned))
	rep := &atomicReport{}
	cache := ix.cacheFor(root)
	registry := lsp.NewRegistry()
	defer registry.Close(ctx)

	var seenMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)

	for _, sf := range scanned {
		sf := sf
		seenMu.Lock()
		seen[sf.Path] = true
		seenMu.Unlock()
		g.Go(func() error {
			return ix.analyzeFile(gctx, registry, projectID, sf, existingByPath[sf.Path], cache, rep)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for path := range existingByPath {
		if seen[path] {
			continue
		}
		if err := ix.store.DeleteFileRecord(projectID, path); err != nil {
			return nil, err
		}
		cache.Remove(path)
		rep.add(&rep.report.Deleted, 1)
	}

	if err := cache.Save(); err != nil {
		log.Warn("failed to persist file cache: %v", err)
	}
	return &rep.report, nil
}

// analyzeFile hashes one scanned file, classifies it, and (for new/changed
// files) re-extracts its symbol tree. Per-file errors increment
// report.Errors and never abort the enclosing Analyze call.
func (ix *Indexer) analyzeFile(ctx context.Context, registry *lsp.Registry, projectID string, sf ScannedFile, prev *store.FileRecord, cache *FileCache, rep *atomicReport) error {
	hash, ok := cache.Lookup(sf.Path, sf.Size, sf.ModTime)
	if !ok {
		h, err := HashFile(sf.Path)
		if err != nil {
			rep.add(&rep.report.Errors, 1)
			return nil
		}
		hash = h
		cache.Update(sf.Path, sf.Size, sf.ModTime, hash)
	}

	existed := prev != nil
	prevHash := ""
	if existed {
		prevHash = prev.Hash
	}
	kind := Classify(prevHash, hash, existed)

	if kind == ChangeUnchanged {
		rep.add(&rep.report.Unchanged, 1)
		return nil
	}
	if kind == ChangeNew {
		rep.add(&rep.report.New, 1)
	} else {
		rep.add(&rep.report.Changed, 1)
	}

	symbols, extractErr := ix.extractSymbols(ctx, registry, sf)
	if extractErr != nil {
		rep.add(&rep.report.Errors, 1)
		if existed {
			// Keep the file tracked under its previous symbols rather than
			// dropping it silently; only the hash/timestamp advance.
			symbols = ix.existingSymbols(prev)
		}
	}

	rec := &store.FileRecord{
		ProjectID:    projectID,
		Path:         sf.Path,
		Size:         sf.Size,
		Hash:         hash,
		Language:     sf.Language,
		IsEntrypoint: IsEntrypoint(sf.Path),
		LastAnalyzed: time.Now().UTC(),
	}
	if _, err := ix.store.PutFileRecordWithSymbols(rec, symbols); err != nil {
		return err
	}

	rep.add(&rep.report.FilesAnalyzed, 1)
	rep.add(&rep.report.SymbolsFound, len(symbols))
	return nil
}

func (ix *Indexer) existingSymbols(prev *store.FileRecord) []*store.Symbol {
	syms, err := ix.store.ListSymbolsByFile(prev.ID)
	if err != nil {
		return nil
	}
	// Stored ParentIDs are row ids; PutFileRecordWithSymbols takes indices into syms.
	index := make(map[int64]int64, len(syms))
	for i, s := range syms {
		index[s.ID] = int64(i)
	}
	for _, s := range syms {
		if s.ParentID != nil {
			i, ok := index[*s.ParentID]
			s.ParentID = nil
			if ok {
				s.ParentID = &i
			}
		}
	}
	return syms
}

// extractSymbols runs LSP-based extraction when a server is available for
// sf.Language, falling back to regex extraction otherwise.
func (ix *Indexer) extractSymbols(ctx context.Context, registry *lsp.Registry, sf ScannedFile) ([]*store.Symbol, error) {
	client, ok := registry.Get(ctx, sf.Language)
	if !ok {
		syms, err := FallbackExtract(sf.Path, sf.Language)
		if err != nil {
			return nil, coreerr.New(coreerr.IoError, "fallback_extract", sf.Path, err)
		}
		return syms, nil
	}

	text, err := os.ReadFile(sf.Path)
	if err != nil {
		return nil, coreerr.New(coreerr.IoError, "read_file", sf.Path, err)
	}
	uri := "file://" + sf.Path
	docSymbols, err := client.DocumentSymbols(ctx, uri, lsp.LanguageID(sf.Language), string(text))
	if err != nil {
		return nil, err
	}
	var out []*store.Symbol
	flattenDocumentSymbols(&out, docSymbols, nil)
	return out, nil
}

// flattenDocumentSymbols converts LSP's hierarchical DocumentSymbol tree
// into a flat Symbol slice, appending children immediately after their
// parent is known so ParentID can reference the parent's final index in
// out. PutFileRecordWithSymbols remaps these local indices to persisted
// row ids. IsExported is always true: DocumentSymbol carries no
// visibility information to infer it from.
func flattenDocumentSymbols(out *[]*store.Symbol, symbols []lsp.DocumentSymbol, parentIdx *int64) {
	for _, ds := range symbols {
		sym := &store.Symbol{
			Name:       ds.Name,
			Kind:       store.SymbolKindFromLSP(ds.Kind),
			Detail:     ds.Detail,
			StartLine:  ds.Range.Start.Line + 1,
			StartCol:   ds.Range.Start.Character,
			EndLine:    ds.Range.End.Line + 1,
			EndCol:     ds.Range.End.Character,
			ParentID:   parentIdx,
			IsExported: true,
		}
		*out = append(*out, sym)
		selfIdx := int64(len(*out) - 1)
		if len(ds.Children) > 0 {
			flattenDocumentSymbols(out, ds.Children, &selfIdx)
		}
	}
}
