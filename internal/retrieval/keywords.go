// Package retrieval implements Semantic Retrieval: description
// construction over Symbols, a deterministic keyword-frequency embedding,
// and cosine-similarity ranked search. The embedding is a plain
// keyword-frequency vector, not a learned one.
package retrieval

import (
	"regexp"
	"strings"
)

// Keywords is the fixed, ordered closed list K that defines the embedding
// vector's dimensionality. Every vector produced by Embed has
// exactly len(Keywords) components, one per entry here, in this order.
var Keywords = []string{
	"function", "method", "class", "interface", "struct", "enum", "constant",
	"variable", "property", "field", "constructor", "module", "package",
	"namespace", "async", "await", "error", "exception", "auth", "authenticate",
	"authorization", "database", "query", "transaction", "api", "endpoint",
	"route", "handler", "middleware", "render", "view", "template", "model",
	"schema", "service", "client", "server", "config", "configuration",
	"test", "mock", "cache", "queue", "worker", "event", "listener",
	"validate", "parse", "serialize", "encode", "decode",
	"create", "update", "delete", "search", "index", "user", "session",
	"request", "response", "token", "login", "password",
}

var nonWord = regexp.MustCompile(`[^\w]+`)

// Tokenize lowercases text, replaces non-word runs with spaces, splits on
// whitespace, and discards tokens shorter than 3 characters.
func Tokenize(text string) []string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 3 {
			out = append(out, f)
		}
	}
	return out
}

// tokenCounts tallies occurrences of each token.
func tokenCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

// Embed builds the deterministic keyword-frequency vector for text:
// tokenize, count, then for each keyword k component value =
// count(k) + 0.5 * sum of count(t) for every distinct token t that is a
// substring of k or has k as a substring.
func Embed(text string) []float32 {
	counts := tokenCounts(Tokenize(text))
	vec := make([]float32, len(Keywords))
	for i, k := range Keywords {
		value := float64(counts[k])
		for t, n := range counts {
			if t == k {
				continue
			}
			if strings.Contains(t, k) || strings.Contains(k, t) {
				value += 0.5 * float64(n)
			}
		}
		vec[i] = float32(value)
	}
	return vec
}
