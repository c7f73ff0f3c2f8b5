package driver

import (
	"sync"
)

// MemoryCache keeps payloads for the lifetime of one run, so files with
// identical content are linted once.
type MemoryCache struct {
	mu    sync.RWMutex
	byKey map[Digest]*DiskPayload
}

// NewMemoryCache creates a MemoryCache with the given capacity hint.
func NewMemoryCache(capHint int) *MemoryCache {
	return &MemoryCache{byKey: make(map[Digest]*DiskPayload, capHint)}
}

// Get returns the payload stored under key.
func (c *MemoryCache) Get(key Digest) (*DiskPayload, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	p, ok := c.byKey[key]
	c.mu.RUnlock()
	return p, ok
}

// Put stores payload under key. The payload must not be mutated afterwards.
func (c *MemoryCache) Put(key Digest, payload *DiskPayload) {
	if c == nil || payload == nil {
		return
	}
	c.mu.Lock()
	c.byKey[key] = payload
	c.mu.Unlock()
}

// Len returns the number of stored payloads.
func (c *MemoryCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}
