package lsp

import (
	"context"
	"os/exec"
	"sync"

	"codeindex/internal/coreerr"
	"codeindex/internal/logging"
	"codeindex/internal/store"
)

// serverCommand maps a detected language to the external language-server
// binary and arguments that speak documentSymbol over stdio. Languages not
// present in this table, or whose binary isn't on PATH, simply never get a
// server started.
var serverCommand = map[store.Language][]string{
	store.LangGo:         {"gopls"},
	store.LangPython:     {"pyright-langserver", "--stdio"},
	store.LangTypeScript: {"typescript-language-server", "--stdio"},
	store.LangJavaScript: {"typescript-language-server", "--stdio"},
	store.LangRust:       {"rust-analyzer"},
	store.LangRuby:       {"solargraph", "stdio"},
	store.LangJava:       {"jdtls"},
	store.LangPHP:        {"intelephense", "--stdio"},
}

// languageID is the LSP languageId sent with each didOpen.
var languageID = map[store.Language]string{
	store.LangGo:         "go",
	store.LangPython:     "python",
	store.LangTypeScript: "typescript",
	store.LangJavaScript: "javascript",
	store.LangRust:       "rust",
	store.LangRuby:       "ruby",
	store.LangJava:       "java",
	store.LangPHP:        "php",
}

// Registry lazily starts and caches one Client per language for the
// lifetime of a single analyze() call, and shuts every started client down
// on Close.
type Registry struct {
	mu      sync.Mutex
	clients map[store.Language]*Client
	failed  map[store.Language]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[store.Language]*Client),
		failed:  make(map[store.Language]bool),
	}
}

// Get returns the cached client for lang, starting it on first use. A
// language with no registered server command, or whose binary fails to
// start, is remembered as unavailable and never retried within this
// registry's lifetime — the caller should fall back to regex extraction.
func (r *Registry) Get(ctx context.Context, lang store.Language) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[lang]; ok {
		return c, true
	}
	if r.failed[lang] {
		return nil, false
	}

	args, ok := serverCommand[lang]
	if !ok {
		r.failed[lang] = true
		return nil, false
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		logging.Get(logging.CategoryLSP).Warn("language server %s not on PATH: %v", args[0], err)
		r.failed[lang] = true
		return nil, false
	}

	c, err := Start(ctx, args[0], args[1:]...)
	if err != nil {
		logging.Get(logging.CategoryLSP).Warn("failed to start language server for %s: %v", lang, coreerr.New(coreerr.LspUnavailable, "start", string(lang), err))
		r.failed[lang] = true
		return nil, false
	}
	r.clients[lang] = c
	return c, true
}

// LanguageID returns the LSP languageId string for lang.
func LanguageID(lang store.Language) string {
	return languageID[lang]
}

// Close shuts down every client started by this registry.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for lang, c := range r.clients {
		if err := c.Shutdown(ctx); err != nil {
			logging.Get(logging.CategoryLSP).Warn("shutdown failed for %s server: %v", lang, err)
		}
	}
	r.clients = make(map[store.Language]*Client)
}
