package indexer

import (
	"os"
	"path/filepath"

	"codeindex/internal/store"
)

// rootIndicators maps a marker filename to the language bucket it
// authoritatively signals in the marker-file pass.
var rootIndicators = map[string]store.Language{
	"package.json":     store.LangJavaScript,
	"go.mod":           store.LangGo,
	"Cargo.toml":       store.LangRust,
	"pyproject.toml":   store.LangPython,
	"requirements.txt": store.LangPython,
	"setup.py":         store.LangPython,
	"Gemfile":          store.LangRuby,
	"pom.xml":          store.LangJava,
	"build.gradle":     store.LangJava,
	"composer.json":    store.LangPHP,
}

// extensionLanguage is the authoritative closed extension → language map.
var extensionLanguage = map[string]store.Language{
	".js":   store.LangJavaScript,
	".jsx":  store.LangJavaScript,
	".mjs":  store.LangJavaScript,
	".cjs":  store.LangJavaScript,
	".ts":   store.LangTypeScript,
	".tsx":  store.LangTypeScript,
	".py":   store.LangPython,
	".go":   store.LangGo,
	".rs":   store.LangRust,
	".rb":   store.LangRuby,
	".java": store.LangJava,
	".php":  store.LangPHP,
}

// excludedDirs are never descended into during a scan.
var excludedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"out":          true,
	".next":        true,
	"coverage":     true,
	"vendor":       true,
	"target":       true,
	"__pycache__":  true,
	"venv":         true,
	".venv":        true,
}

// LanguageOf returns the language bucket for a file extension, or "" if
// the extension is unrecognized.
func LanguageOf(path string) store.Language {
	return extensionLanguage[filepath.Ext(path)]
}

// DetectLanguages runs the two-phase language detection: a root-indicator
// pass for the authoritative primary language, broken by file-count ties,
// layered with the full extension census (used for the detected set and as
// the primary-language tiebreaker / sole source when no marker matches).
func DetectLanguages(root string, counts map[store.Language]int) (primary store.Language, detected []store.Language) {
	var indicated []store.Language
	entries, err := os.ReadDir(root)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if lang, ok := rootIndicators[e.Name()]; ok {
				indicated = append(indicated, lang)
			}
		}
	}

	detected = make([]store.Language, 0, len(counts))
	for lang, n := range counts {
		if n > 0 {
			detected = append(detected, lang)
		}
	}

	if len(indicated) == 1 {
		return indicated[0], detected
	}
	if len(indicated) > 1 {
		// Tie-break among indicated languages by file count (phase 2).
		best := indicated[0]
		for _, lang := range indicated[1:] {
			if counts[lang] > counts[best] {
				best = lang
			}
		}
		return best, detected
	}

	// No root indicator matched: fall back to the highest-count language.
	var best store.Language
	bestCount := -1
	for lang, n := range counts {
		if n > bestCount {
			best = lang
			bestCount = n
		}
	}
	return best, detected
}

// entrypointNames is the closed set of basenames recognized as program
// entry points.
var entrypointNames = map[string]bool{
	"index.js": true, "index.ts": true,
	"main.js": true, "main.ts": true,
	"app.js": true, "app.ts": true,
	"server.js": true, "server.ts": true,
	"__main__.py": true, "main.py": true,
	"Main.java": true, "main.go": true, "main.rs": true,
}

// IsEntrypoint reports whether path is a recognized program entry point:
// either its basename is in the closed set, or its path contains a /bin/
// path component.
func IsEntrypoint(path string) bool {
	if entrypointNames[filepath.Base(path)] {
		return true
	}
	for _, part := range splitPathComponents(path) {
		if part == "bin" {
			return true
		}
	}
	return false
}

func splitPathComponents(path string) []string {
	var parts []string
	for {
		dir, file := filepath.Split(filepath.Clean(path))
		if file != "" {
			parts = append(parts, file)
		}
		if dir == "" || dir == string(filepath.Separator) {
			break
		}
		next := filepath.Clean(dir)
		if next == path {
			break
		}
		path = next
	}
	return parts
}
