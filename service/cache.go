package service

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"sync"
	"time"
)

type cacheEntry struct {
	result    AdhocResult
	timestamp time.Time
}

// resultCache holds ad-hoc results keyed by normalized URL. Expired entries
// are dropped lazily and by cleanup, which also trims the oldest entries
// beyond maxSize.
type resultCache struct {
	mu              sync.RWMutex
	entries         map[string]cacheEntry
	ttl             time.Duration
	maxSize         int
	lastCleanup     time.Time
	cleanupInterval time.Duration
	now             func() time.Time
}

func newResultCache(ttl time.Duration, maxSize int) *resultCache {
	return &resultCache{
		entries:         make(map[string]cacheEntry),
		ttl:             ttl,
		maxSize:         maxSize,
		lastCleanup:     time.Now(),
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
	}
}

func generateCacheKey(url string) string {
	hash := md5.Sum([]byte(url))
	return hex.EncodeToString(hash[:])
}

func (c *resultCache) get(url string) (AdhocResult, bool) {
	if c.ttl <= 0 {
		return AdhocResult{}, false
	}
	c.mu.RLock()
	entry, found := c.entries[generateCacheKey(url)]
	c.mu.RUnlock()

	if !found || c.now().Sub(entry.timestamp) >= c.ttl {
		return AdhocResult{}, false
	}
	r := entry.result
	r.Improvements = append([]string(nil), entry.result.Improvements...)
	return r, true
}

func (c *resultCache) put(url string, r AdhocResult) {
	if c.ttl <= 0 {
		return
	}
	r.Improvements = append([]string(nil), r.Improvements...)

	c.mu.Lock()
	c.entries[generateCacheKey(url)] = cacheEntry{result: r, timestamp: c.now()}
	due := c.now().Sub(c.lastCleanup) > c.cleanupInterval || len(c.entries) > c.maxSize
	c.mu.Unlock()

	if due {
		c.cleanup()
	}
}

func (c *resultCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.timestamp) >= c.ttl {
			delete(c.entries, key)
		}
	}

	if len(c.entries) > c.maxSize {
		type aged struct {
			key       string
			timestamp time.Time
		}
		entries := make([]aged, 0, len(c.entries))
		for key, entry := range c.entries {
			entries = append(entries, aged{key, entry.timestamp})
		}

		sort.Slice(entries, func(i, j int) bool {
			return entries[i].timestamp.Before(entries[j].timestamp)
		})

		for i := 0; i < len(entries)-c.maxSize; i++ {
			delete(c.entries, entries[i].key)
		}
	}

	c.lastCleanup = now
}

func (c *resultCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
