package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"codeindex/internal/store"
)

func TestStripCommentMarkers(t *testing.T) {
	cases := []struct {
		in      string
		text    string
		comment bool
	}{
		{"// checks the password", "checks the password", true},
		{"/* block start", "block start", true},
		{" * continuation", "continuation", true},
		{" */", "", true},
		{"# python style", "python style", true},
		{"", "", true},
		{"const x = 1", "", false},
	}
	for _, c := range cases {
		text, ok := stripCommentMarkers(c.in)
		require.Equal(t, c.comment, ok, "input %q", c.in)
		require.Equal(t, c.text, text, "input %q", c.in)
	}
}

func TestLeadingCommentWalksBackward(t *testing.T) {
	lines := []string{
		"const unrelated = 1",
		"// Authenticates a user",
		"// against the stored hash.",
		"function login() {",
		"}",
	}
	// Symbol starts at line 4 (1-based).
	require.Equal(t, "Authenticates a user against the stored hash.", leadingComment(lines, 4))
}

func TestLeadingCommentStopsAtCode(t *testing.T) {
	lines := []string{
		"// far away comment",
		"const x = 1",
		"function f() {}",
	}
	require.Equal(t, "", leadingComment(lines, 3))
}

func TestLeadingCommentCapsAtTenLines(t *testing.T) {
	var lines []string
	for i := 0; i < 15; i++ {
		lines = append(lines, "// line")
	}
	lines = append(lines, "function f() {}")
	got := leadingComment(lines, len(lines))
	require.Equal(t, 10, len(strings.Fields(got)))
}

func TestCodeSnippetClampsToFileBounds(t *testing.T) {
	lines := []string{"l1", "l2", "l3", "l4", "l5"}
	// Symbol spanning lines 1-2: snippet is [1-2, 2+2] clamped to [1, 4].
	require.Equal(t, "l1\nl2\nl3\nl4", codeSnippet(lines, 1, 2))
	// Symbol at the end: clamped to the last line.
	require.Equal(t, "l2\nl3\nl4\nl5", codeSnippet(lines, 4, 5))
	require.Equal(t, "", codeSnippet(nil, 1, 1))
}

func TestBuildDescriptionJoinsParts(t *testing.T) {
	lines := []string{
		"// Authenticates a user.",
		"function login(user, pass) {",
		"}",
	}
	sym := &store.Symbol{
		Name:      "login",
		Kind:      store.KindFunction,
		Detail:    "login(user, pass)",
		StartLine: 2,
		EndLine:   3,
	}
	desc, snippet := BuildDescription(sym, lines, "/repo", "/repo/src/auth.js")
	require.Equal(t,
		"function login | login(user, pass) | Authenticates a user. | Located in: src > auth.js",
		desc)
	require.Equal(t, strings.Join(lines, "\n"), snippet)
}

func TestBuildDescriptionOmitsEmptyParts(t *testing.T) {
	lines := []string{"function f() {}"}
	sym := &store.Symbol{Name: "f", Kind: store.KindFunction, StartLine: 1, EndLine: 1}
	desc, _ := BuildDescription(sym, lines, "/repo", "/repo/f.js")
	require.Equal(t, "function f | Located in: f.js", desc)
}
