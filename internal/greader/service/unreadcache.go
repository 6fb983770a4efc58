package service

import (
	"sync"
	"time"
)

// unreadCacheTTL is the unread-count cache lifetime (spec.md §4.9
// "unread counts (cached)"), grounded on stream_service.py's
// UNREAD_COUNT_CACHE_TTL.
const unreadCacheTTL = 30 * time.Second

type unreadCacheKey struct {
	userID     int64
	includeAll bool
}

type unreadCacheEntry struct {
	result    UnreadCounts
	expiresAt time.Time
}

// unreadCountCache is a process-local, mutex-guarded TTL cache (spec.md §5:
// "no distributed cache"), modeled on internal/aggregator/reddit's
// tokenCache — a map guarded by one mutex, with an injectable clock so
// tests don't depend on wall time.
type unreadCountCache struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[unreadCacheKey]unreadCacheEntry
}

func newUnreadCountCache(now func() time.Time) *unreadCountCache {
	if now == nil {
		now = time.Now
	}
	return &unreadCountCache{now: now, items: make(map[unreadCacheKey]unreadCacheEntry)}
}

func (c *unreadCountCache) get(userID int64, includeAll bool) (UnreadCounts, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[unreadCacheKey{userID, includeAll}]
	if !ok || c.now().After(entry.expiresAt) {
		return UnreadCounts{}, false
	}
	return entry.result, true
}

func (c *unreadCountCache) set(userID int64, includeAll bool, result UnreadCounts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[unreadCacheKey{userID, includeAll}] = unreadCacheEntry{
		result:    result,
		expiresAt: c.now().Add(unreadCacheTTL),
	}
}

// invalidate drops every cached entry for userID, both include_all values
// (spec.md §4.9: a tag edit invalidates the caller's cache), grounded on
// stream_service.py's invalidate_unread_cache.
func (c *unreadCountCache) invalidate(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, unreadCacheKey{userID, false})
	delete(c.items, unreadCacheKey{userID, true})
}
