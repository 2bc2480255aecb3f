package alias

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a resolved alias is reused.
const DefaultTTL = 24 * time.Hour

// Cache stores resolved aliases by player id.
type Cache interface {
	Get(ctx context.Context, playerID string) (string, bool, error)
	Set(ctx context.Context, playerID, alias string) error
}

// MemoryCache is an in-process alias cache with TTL
type MemoryCache struct {
	mu       sync.Mutex
	Aliases  map[string]string    `json:"aliases"`
	CachedAt map[string]time.Time `json:"cached_at"`
	TTL      time.Duration        `json:"-"`
}

// NewMemoryCache creates an empty cache. A non-positive ttl uses DefaultTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		Aliases:  make(map[string]string),
		CachedAt: make(map[string]time.Time),
		TTL:      ttl,
	}
}

// Get returns the cached alias if present and not expired
func (c *MemoryCache) Get(_ context.Context, playerID string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	alias, exists := c.Aliases[playerID]
	if !exists {
		return "", false, nil
	}

	cachedTime, hasTime := c.CachedAt[playerID]
	if !hasTime || time.Since(cachedTime) > c.TTL {
		delete(c.Aliases, playerID)
		delete(c.CachedAt, playerID)
		return "", false, nil
	}

	return alias, true, nil
}

// Set stores an alias
func (c *MemoryCache) Set(_ context.Context, playerID, alias string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Aliases[playerID] = alias
	c.CachedAt[playerID] = time.Now()
	return nil
}

// CleanExpired removes expired entries and returns how many were removed
func (c *MemoryCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, cachedTime := range c.CachedAt {
		if now.Sub(cachedTime) > c.TTL {
			delete(c.Aliases, id)
			delete(c.CachedAt, id)
			removed++
		}
	}
	return removed
}

// Size returns the number of cached entries
func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Aliases)
}
