package indexer

import "codeindex/internal/store"

// OutlineSymbol is a Symbol with its children attached, for file_outline's
// hierarchical result.
type OutlineSymbol struct {
	*store.Symbol
	Children []*OutlineSymbol
}

// FileOutline returns the hierarchical symbol tree for path, rooted at its
// top-level symbols with children attached via ParentID. Returns an empty
// slice if the file is not indexed.
func (ix *Indexer) FileOutline(path string) ([]*OutlineSymbol, error) {
	rec, err := ix.store.FindFileRecordByPath(path)
	if err != nil {
		return nil, nil
	}
	symbols, err := ix.store.ListSymbolsByFile(rec.ID)
	if err != nil {
		return nil, err
	}
	return buildOutline(symbols), nil
}

// buildOutline assembles a flat Symbol list (each carrying a ParentID into
// the same file) into a forest of OutlineSymbol nodes.
func buildOutline(symbols []*store.Symbol) []*OutlineSymbol {
	nodes := make(map[int64]*OutlineSymbol, len(symbols))
	for _, sym := range symbols {
		nodes[sym.ID] = &OutlineSymbol{Symbol: sym}
	}
	var roots []*OutlineSymbol
	for _, sym := range symbols {
		node := nodes[sym.ID]
		if sym.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*sym.ParentID]
		if !ok {
			// parent_id is written to always reference a symbol in the
			// same file; a miss here would mean the tree was corrupted, so
			// treat the orphaned node as a root rather than dropping it.
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}
