package indexer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"codeindex/internal/logging"
)

// CacheEntry is a file's last-observed size/mtime fingerprint, used to skip
// re-hashing files the OS reports as untouched since the last scan. This is
// an optimization layered on top of the hash-based change detection: when a
// file's size and mtime (whole seconds) both match its entry, analyze()
// reuses the cached hash without reading the file; any other file is
// re-hashed from its content before classification.
type CacheEntry struct {
	Hash    string `json:"hash"`
	ModTime int64  `json:"mod_time"`
	Size    int64  `json:"size"`
}

// FileCache is an on-disk snapshot of per-file fingerprints for a project
// root, letting a cold-started process skip rehashing files whose size and
// mtime are unchanged on its next analyze. hash_tree does not read it; that
// comes from the stored file records.
type FileCache struct {
	mu      sync.RWMutex
	path    string
	Entries map[string]CacheEntry
	dirty   bool
}

// NewFileCache loads (or initializes) the cache for a project root.
func NewFileCache(root string) *FileCache {
	c := &FileCache{
		path:    filepath.Join(root, ".codeindex", "cache", "manifest.json"),
		Entries: make(map[string]CacheEntry),
	}
	c.load()
	return c
}

func (c *FileCache) load() {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &c.Entries); err != nil {
		logging.Get(logging.CategoryIndexer).Warn("corrupt file cache at %s, starting fresh: %v", c.path, err)
		c.Entries = make(map[string]CacheEntry)
	}
}

// Save persists the cache if it has been modified since the last load/save.
func (c *FileCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.Entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// Lookup returns the cached hash if size and mtime still match, avoiding a
// re-read of the file's content.
func (c *FileCache) Lookup(path string, size, modTime int64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.Entries[path]
	if !ok || entry.Size != size || entry.ModTime != modTime {
		return "", false
	}
	return entry.Hash, true
}

// Update records a file's current fingerprint and hash.
func (c *FileCache) Update(path string, size, modTime int64, hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries[path] = CacheEntry{Hash: hash, ModTime: modTime, Size: size}
	c.dirty = true
}

// Remove drops a path from the cache, e.g. after a deletion is observed.
func (c *FileCache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.Entries[path]; ok {
		delete(c.Entries, path)
		c.dirty = true
	}
}

// Paths returns every path currently tracked by the cache.
func (c *FileCache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.Entries))
	for p := range c.Entries {
		out = append(out, p)
	}
	return out
}
