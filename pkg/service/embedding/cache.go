package embedding

import (
	"crypto/sha256"
	"fmt"
	"sync"
)

// Cache holds embeddings computed during one matching batch. It must not be
// shared across users.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string][]float32)}
}

// Get returns the cached vector for key. A nil cache always misses.
func (c *Cache) Get(key string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores vec under key. A nil cache drops it.
func (c *Cache) Put(key string, vec []float32) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = vec
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TextKey derives a cache key for free text with no backing entity
func TextKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("text:%x", h)
}
