package storage

import (
	"sort"
	"strings"
	"sync"
)

// NameCache is the in-memory set of known display names, lower-cased. It is
// derived from the identities table and safe for concurrent use.
type NameCache struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// NewNameCache creates an empty cache.
func NewNameCache() *NameCache {
	return &NameCache{names: make(map[string]struct{})}
}

// Add inserts name.
func (c *NameCache) Add(name string) {
	c.mu.Lock()
	c.names[strings.ToLower(name)] = struct{}{}
	c.mu.Unlock()
}

// Remove deletes name, ignoring case.
func (c *NameCache) Remove(name string) {
	c.mu.Lock()
	delete(c.names, strings.ToLower(name))
	c.mu.Unlock()
}

// Replace swaps the whole contents for names.
func (c *NameCache) Replace(names []string) {
	next := make(map[string]struct{}, len(names))
	for _, n := range names {
		next[strings.ToLower(n)] = struct{}{}
	}
	c.mu.Lock()
	c.names = next
	c.mu.Unlock()
}

// Len returns the number of cached names.
func (c *NameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Sorted returns a sorted snapshot.
func (c *NameCache) Sorted() []string {
	return c.WithPrefix("")
}

// WithPrefix returns the sorted names starting with prefix, ignoring case.
func (c *NameCache) WithPrefix(prefix string) []string {
	prefix = strings.ToLower(prefix)

	c.mu.RLock()
	out := make([]string, 0, len(c.names))
	for n := range c.names {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	c.mu.RUnlock()

	sort.Strings(out)
	return out
}
