// cmd/veridex/cache.go
package main

import (
	"sync"
	"time"
)

// CacheItem represents a cached entry with expiration
type CacheItem struct {
	Key       string
	Value     interface{}
	ExpireAt  time.Time
	CreatedAt time.Time
}

// Cache is an in-memory cache with per-item expiration, used to avoid
// re-scraping the same URL across pipeline runs.
type Cache struct {
	items      map[string]*CacheItem
	mutex      sync.RWMutex
	maxItems   int
	defaultTTL time.Duration
}

// NewCache creates a new cache instance
func NewCache(defaultTTL time.Duration, maxItems int) *Cache {
	return &Cache{
		items:      make(map[string]*CacheItem),
		maxItems:   maxItems,
		defaultTTL: defaultTTL,
	}
}

// Set adds an item to the cache with default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL adds an item to the cache with specified TTL
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &CacheItem{
		Key:       key,
		Value:     value,
		ExpireAt:  time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}

	// Enforce size limit if needed
	if c.maxItems > 0 && len(c.items) > c.maxItems {
		c.evictOldest()
	}
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}

	// Check if item has expired
	if time.Now().After(item.ExpireAt) {
		return nil, false
	}

	return item.Value, true
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}

// Len returns the number of entries, expired ones included
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// Sweep removes all expired entries and returns how many were dropped
func (c *Cache) Sweep() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	removed := 0
	for key, item := range c.items {
		if now.After(item.ExpireAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// evictOldest removes the entry with the earliest creation time.
// Caller must hold the write lock.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, item := range c.items {
		if oldestKey == "" || item.CreatedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.CreatedAt
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
