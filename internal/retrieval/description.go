package retrieval

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"codeindex/internal/store"
)

// stripCommentMarkers strips a leading line-comment/block-comment marker
// from a line, leaving just its text. The bool reports whether the line is
// a comment or blank.
func stripCommentMarkers(line string) (string, bool) {
	t := strings.TrimSpace(line)
	switch {
	case t == "":
		return "", true
	case strings.HasPrefix(t, "//"):
		return strings.TrimSpace(strings.TrimPrefix(t, "//")), true
	case strings.HasPrefix(t, "/*"):
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(t, "/*"), "*/")), true
	case strings.HasPrefix(t, "*/"):
		return strings.TrimSpace(strings.TrimPrefix(t, "*/")), true
	case strings.HasPrefix(t, "*"):
		return strings.TrimSpace(strings.TrimPrefix(t, "*")), true
	case strings.HasPrefix(t, "#"):
		return strings.TrimSpace(strings.TrimPrefix(t, "#")), true
	default:
		return "", false
	}
}

// ReadLines reads path into a slice of lines with no trailing newline, for
// leading-comment extraction and code-snippet capture.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// leadingComment walks backward from startLine (1-based) up to 10 lines,
// collecting comment text and stopping at the first non-comment, non-blank
// line. Blank lines between the symbol and its comment
// block are skipped without counting as the stop condition only while no
// comment text has been seen yet.
func leadingComment(lines []string, startLine int) string {
	var collected []string
	seenComment := false
	for i, steps := startLine-2, 0; i >= 0 && steps < 10; i, steps = i-1, steps+1 {
		text, isComment := stripCommentMarkers(lines[i])
		if !isComment {
			break
		}
		if text == "" {
			if seenComment {
				break
			}
			continue
		}
		seenComment = true
		collected = append([]string{text}, collected...)
	}
	return strings.Join(collected, " ")
}

// codeSnippet captures lines [start-2, end+2] (1-based, inclusive),
// clamped to the file's bounds.
func codeSnippet(lines []string, startLine, endLine int) string {
	from := startLine - 2
	if from < 1 {
		from = 1
	}
	to := endLine + 2
	if to > len(lines) {
		to = len(lines)
	}
	if from > to || len(lines) == 0 {
		return ""
	}
	return strings.Join(lines[from-1:to], "\n")
}

// relPathComponents joins a project-relative path's components with " > "
// for the description's location segment.
func relPathComponents(projectRoot, path string) string {
	rel := strings.TrimPrefix(path, projectRoot)
	rel = strings.TrimPrefix(rel, "/")
	parts := strings.Split(rel, "/")
	return strings.Join(parts, " > ")
}

// BuildDescription assembles a Symbol's description and code snippet:
// "{kind} {name}" | detail | leading comment | "Located in: ...",
// joining present (non-empty) parts with " | ".
func BuildDescription(sym *store.Symbol, lines []string, projectRoot, filePath string) (description, snippet string) {
	var parts []string
	parts = append(parts, fmt.Sprintf("%s %s", sym.Kind, sym.Name))
	if sym.Detail != "" {
		parts = append(parts, sym.Detail)
	}
	if comment := leadingComment(lines, sym.StartLine); comment != "" {
		parts = append(parts, comment)
	}
	if loc := relPathComponents(projectRoot, filePath); loc != "" {
		parts = append(parts, "Located in: "+loc)
	}
	return strings.Join(parts, " | "), codeSnippet(lines, sym.StartLine, sym.EndLine)
}
