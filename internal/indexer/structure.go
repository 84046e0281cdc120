package indexer

import (
	"codeindex/internal/store"
)

// StructureSummary is project_structure's {files, symbols,
// functions+methods, classes+interfaces} count summary.
type StructureSummary struct {
	Files                int
	Symbols              int
	FunctionsAndMethods  int
	ClassesAndInterfaces int
}

// ProjectStructure returns summary counts for a project.
func (ix *Indexer) ProjectStructure(projectID string) (*StructureSummary, error) {
	files, err := ix.store.ListFileRecords(projectID)
	if err != nil {
		return nil, err
	}
	total, funcs, classes, err := ix.store.SymbolCounts(projectID)
	if err != nil {
		return nil, err
	}
	return &StructureSummary{
		Files:                len(files),
		Symbols:              total,
		FunctionsAndMethods:  funcs,
		ClassesAndInterfaces: classes,
	}, nil
}

// FileHash is one row of hash_tree's result.
type FileHash struct {
	Path         string
	Hash         string
	Language     store.Language
	Size         int64
	LastAnalyzed int64 // unix seconds
}

// HashTree returns the current hash/size/language fingerprint of every
// tracked file in a project, used for round-trip verification
// and as a cheap "did anything change" probe for collaborators.
func (ix *Indexer) HashTree(projectID string) ([]FileHash, error) {
	files, err := ix.store.ListFileRecords(projectID)
	if err != nil {
		return nil, err
	}
	out := make([]FileHash, 0, len(files))
	for _, f := range files {
		out = append(out, FileHash{
			Path:         f.Path,
			Hash:         f.Hash,
			Language:     f.Language,
			Size:         f.Size,
			LastAnalyzed: f.LastAnalyzed.Unix(),
		})
	}
	return out, nil
}
