package application

import (
	"strings"
	"sync"
	"time"
)

// unresolvedCache remembers recently reported unresolved names so that a
// name repeated on every message of a shop is logged once per ttl.
type unresolvedCache struct {
	mu         sync.Mutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]time.Time
}

func newUnresolvedCache(ttl time.Duration, maxEntries int, now func() time.Time) *unresolvedCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 512
	}
	if now == nil {
		now = time.Now
	}
	return &unresolvedCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]time.Time),
	}
}

// Fresh filters names down to the ones not reported for shop within the ttl
// and marks them as reported.
func (c *unresolvedCache) Fresh(shop string, names []string) []string {
	if c == nil {
		return names
	}
	now := c.now()
	expiry := now.Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	var fresh []string
	for _, name := range names {
		key := unresolvedKey(shop, name)
		if expiresAt, ok := c.entries[key]; ok && now.Before(expiresAt) {
			continue
		}
		c.cleanupLocked(now)
		if len(c.entries) >= c.maxEntries {
			c.evictOneLocked()
		}
		c.entries[key] = expiry
		fresh = append(fresh, name)
	}
	return fresh
}

func (c *unresolvedCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]time.Time)
	c.mu.Unlock()
}

func (c *unresolvedCache) cleanupLocked(now time.Time) {
	for key, expiresAt := range c.entries {
		if !now.Before(expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *unresolvedCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func unresolvedKey(shop, name string) string {
	var b strings.Builder
	b.WriteString(shop)
	b.WriteString("|")
	b.WriteString(name)
	return b.String()
}
