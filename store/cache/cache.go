package cache

import (
	"sync"
	"time"
)

// Config controls cache behavior.
type Config struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	MaxItems        int
	OnEviction      func(key string, value any)
}

type item struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL cache with a background cleanup goroutine.
type Cache struct {
	mu     sync.RWMutex
	config Config
	items  map[string]item
	done   chan struct{}
	once   sync.Once
}

// New creates a new cache and starts its cleanup loop.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	c := &Cache{
		config: config,
		items:  make(map[string]item),
		done:   make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Set stores a value under key. A zero ttl uses the default TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config.MaxItems > 0 && len(c.items) >= c.config.MaxItems {
		if _, ok := c.items[key]; !ok {
			c.evictOldestLocked()
		}
	}
	c.items[key] = item{value: value, expiresAt: time.Now().Add(ttl)}
}

// Get returns the value for key if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(it.expiresAt) {
		return nil, false
	}
	return it.value, true
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Size returns the number of cached items including expired ones not yet
// cleaned up.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, it := range c.items {
		if oldestKey == "" || it.expiresAt.Before(oldest) {
			oldestKey = k
			oldest = it.expiresAt
		}
	}
	if oldestKey != "" {
		if c.config.OnEviction != nil {
			c.config.OnEviction(oldestKey, c.items[oldestKey].value)
		}
		delete(c.items, oldestKey)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, it := range c.items {
				if now.After(it.expiresAt) {
					if c.config.OnEviction != nil {
						c.config.OnEviction(k, it.value)
					}
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
