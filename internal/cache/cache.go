// Package cache implements the content-addressed signal cache: a JSON file
// mapping md5(kind + ":" + input) to classifier results with a TTL.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/homescore/homescore-cli/internal/model"
)

// Entry is one cached classifier result.
type Entry struct {
	Result       model.Signal `json:"result"`
	CachedAt     time.Time    `json:"cached_at"`
	AnalysisType string       `json:"analysis_type"`
	InputHash    string       `json:"input_hash"`
}

// Stats summarizes cache contents.
type Stats struct {
	TotalEntries int            `json:"total_entries"`
	ByType       map[string]int `json:"by_type"`
	Path         string         `json:"path"`
}

// Cache is a TTL key-value store for classifier results, persisted to a
// single JSON file on every Set. Persistence failures degrade the cache to
// memory-only for the process lifetime; they are never surfaced to callers.
//
// Construct one per batch run and pass it explicitly; call Flush on
// shutdown.
type Cache struct {
	path string
	ttl  time.Duration

	mu       sync.Mutex
	entries  map[string]Entry
	memOnly  bool
	now      func() time.Time // test hook
}

// New loads the cache file at path (missing or corrupt files start empty)
// and prunes expired entries.
func New(path string, ttl time.Duration) *Cache {
	c := &Cache{
		path:    path,
		ttl:     ttl,
		entries: make(map[string]Entry),
		now:     time.Now,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("cache: read file", zap.String("path", path), zap.Error(err))
		}
		return c
	}
	if err := json.Unmarshal(raw, &c.entries); err != nil {
		zap.L().Warn("cache: corrupt cache file, starting empty", zap.String("path", path), zap.Error(err))
		c.entries = make(map[string]Entry)
		return c
	}
	c.pruneExpiredLocked()
	return c
}

// key computes the cache key for an analysis kind and input fingerprint.
func key(kind, input string) string {
	sum := md5.Sum([]byte(kind + ":" + input))
	return hex.EncodeToString(sum[:])
}

// shortHash is the 8-char input fingerprint stored alongside each entry.
func shortHash(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])[:8]
}

// Get returns the cached signal for (kind, input), treating entries older
// than the TTL as misses and evicting them.
func (c *Cache) Get(kind model.Kind, input string) (*model.Signal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key(string(kind), input)
	entry, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.CachedAt) > c.ttl {
		delete(c.entries, k)
		c.persistLocked()
		return nil, false
	}

	zap.L().Debug("cache: hit", zap.String("kind", string(kind)), zap.String("key", k[:8]))
	result := entry.Result
	return &result, true
}

// Set stores a signal for (kind, input) and persists the full cache
// synchronously.
func (c *Cache) Set(kind model.Kind, input string, result model.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key(string(kind), input)
	c.entries[k] = Entry{
		Result:       result,
		CachedAt:     c.now().UTC(),
		AnalysisType: string(kind),
		InputHash:    shortHash(input),
	}
	c.persistLocked()
}

// Flush persists the cache once more; call on shutdown.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persistLocked()
}

// Clear removes every entry and persists the empty cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	c.persistLocked()
}

// Stats returns entry counts by analysis kind.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		TotalEntries: len(c.entries),
		ByType:       make(map[string]int),
		Path:         c.path,
	}
	for _, e := range c.entries {
		s.ByType[e.AnalysisType]++
	}
	return s
}

func (c *Cache) pruneExpiredLocked() {
	cutoff := c.now().Add(-c.ttl)
	for k, e := range c.entries {
		if e.CachedAt.Before(cutoff) {
			delete(c.entries, k)
		}
	}
}

// persistLocked writes the cache file. On failure it logs once and switches
// to memory-only mode for the rest of the process.
func (c *Cache) persistLocked() {
	if c.memOnly {
		return
	}

	raw, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		zap.L().Warn("cache: marshal", zap.Error(err))
		c.memOnly = true
		return
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			zap.L().Warn("cache: create dir, degrading to memory-only", zap.String("path", c.path), zap.Error(err))
			c.memOnly = true
			return
		}
	}
	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		zap.L().Warn("cache: write file, degrading to memory-only", zap.String("path", c.path), zap.Error(err))
		c.memOnly = true
	}
}
