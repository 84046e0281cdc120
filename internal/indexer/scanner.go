package indexer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"codeindex/internal/store"
)

// ScannedFile is one source file discovered under a project root.
type ScannedFile struct {
	Path     string // absolute
	Size     int64
	ModTime  int64
	Language store.Language
}

// Scan walks root, applying the built-in exclusion set and skipping
// symbolic links that would resolve outside root. Only files with a
// recognized extension are returned; unrecognized extensions are skipped.
func Scan(root string, extraExcludes []string) ([]ScannedFile, map[store.Language]int, error) {
	excludes := make(map[string]bool, len(excludedDirs)+len(extraExcludes))
	for k := range excludedDirs {
		excludes[k] = true
	}
	for _, e := range extraExcludes {
		excludes[e] = true
	}

	var files []ScannedFile
	counts := make(map[store.Language]int)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && excludes[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			relRoot, err := filepath.Abs(root)
			if err != nil {
				return nil
			}
			if !strings.HasPrefix(resolved, relRoot+string(filepath.Separator)) {
				return nil
			}
		}

		lang, ok := extensionLanguage[filepath.Ext(path)]
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, ScannedFile{
			Path:     path,
			Size:     info.Size(),
			ModTime:  info.ModTime().Unix(),
			Language: lang,
		})
		counts[lang]++
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return files, counts, nil
}
