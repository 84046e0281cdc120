package indexer

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"codeindex/internal/store"
)

// fallback extraction is used only when no language server is
// available for a detected language. It is intentionally lossy: the
// attributes it cannot recover (detail, columns, export status, parent)
// are left at their zero value rather than guessed. The end line repeats
// the declaration's own line; the real end of the body is not found.

var fallbackPatterns = map[store.Language]*regexp.Regexp{
	store.LangPython:     regexp.MustCompile(`^(\s*)(def|class)\s+([A-Za-z_][A-Za-z0-9_]*)`),
	store.LangGo:         regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?([A-Za-z_][A-Za-z0-9_]*)`),
	store.LangRuby:       regexp.MustCompile(`^(\s*)(def|class|module)\s+([A-Za-z_][A-Za-z0-9_:?!]*)`),
	store.LangJavaScript: regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][A-Za-z0-9_$]*)|^\s*(?:export\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)`),
	store.LangTypeScript: regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][A-Za-z0-9_$]*)|^\s*(?:export\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)|^\s*(?:export\s+)?interface\s+([A-Za-z_$][A-Za-z0-9_$]*)`),
	store.LangJava:       regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(?:static\s+)?(?:final\s+)?(class|interface|enum)\s+([A-Za-z_][A-Za-z0-9_]*)`),
	store.LangRust:       regexp.MustCompile(`^\s*(?:pub\s+)?(fn|struct|enum|trait)\s+([A-Za-z_][A-Za-z0-9_]*)`),
	store.LangPHP:        regexp.MustCompile(`^\s*(?:public\s+|private\s+|protected\s+)?(?:static\s+)?(function|class|interface)\s+([A-Za-z_][A-Za-z0-9_]*)`),
}

// FallbackExtract scans a file line-by-line for function and class
// declarations using a per-language regex. Except for Go, the patterns
// accept leading indentation, so nested declarations such as methods are
// found too. It never nests symbols — everything returned is a flat list
// with ParentID left nil, and every attribute the regex can't recover is
// zero-valued rather than guessed.
func FallbackExtract(path string, lang store.Language) ([]*store.Symbol, error) {
	pattern, ok := fallbackPatterns[lang]
	if !ok {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var symbols []*store.Symbol
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		name, kind := fallbackNameAndKind(lang, match)
		if name == "" {
			continue
		}
		symbols = append(symbols, &store.Symbol{
			Name:      name,
			Kind:      kind,
			StartLine: line,
			EndLine:   line,
		})
	}
	return symbols, scanner.Err()
}

// fallbackNameAndKind picks the matched name and its symbol kind out of a
// regex match whose group layout varies per language.
func fallbackNameAndKind(lang store.Language, match []string) (string, store.SymbolKind) {
	switch lang {
	case store.LangPython:
		if match[2] == "class" {
			return match[3], store.KindClass
		}
		return match[3], store.KindFunction
	case store.LangGo:
		return match[1], store.KindFunction
	case store.LangRuby:
		switch match[2] {
		case "class":
			return match[3], store.KindClass
		case "module":
			return match[3], store.KindModule
		default:
			return match[3], store.KindFunction
		}
	case store.LangJavaScript, store.LangTypeScript:
		for _, g := range match[1:] {
			if g != "" {
				if strings.Contains(strings.Join(match, " "), "class") {
					return g, store.KindClass
				}
				return g, store.KindFunction
			}
		}
	case store.LangJava:
		switch match[1] {
		case "interface":
			return match[2], store.KindInterface
		case "enum":
			return match[2], store.KindEnum
		default:
			return match[2], store.KindClass
		}
	case store.LangRust:
		switch match[1] {
		case "fn":
			return match[2], store.KindFunction
		case "struct":
			return match[2], store.KindStruct
		case "enum":
			return match[2], store.KindEnum
		default:
			return match[2], store.KindInterface
		}
	case store.LangPHP:
		switch match[1] {
		case "class":
			return match[2], store.KindClass
		case "interface":
			return match[2], store.KindInterface
		default:
			return match[2], store.KindFunction
		}
	}
	return "", store.KindUnknown
}
