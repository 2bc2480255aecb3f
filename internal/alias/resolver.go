package alias

import (
	"context"
)

// Resolver looks up a player's display name upstream.
type Resolver interface {
	ResolveAlias(ctx context.Context, playerID string) (string, error)
}

// Cached resolves aliases through a chain of caches before asking next.
// Cache errors are treated as misses; the upstream result is written back
// to every cache.
type Cached struct {
	next   Resolver
	caches []Cache
}

// NewCached creates a resolver that consults caches in order.
func NewCached(next Resolver, caches ...Cache) *Cached {
	return &Cached{next: next, caches: caches}
}

// ResolveAlias returns the cached alias or resolves it upstream.
func (c *Cached) ResolveAlias(ctx context.Context, playerID string) (string, error) {
	for i, cache := range c.caches {
		alias, ok, err := cache.Get(ctx, playerID)
		if err != nil || !ok {
			continue
		}
		// Warm the faster caches in front of the one that hit.
		for _, earlier := range c.caches[:i] {
			_ = earlier.Set(ctx, playerID, alias)
		}
		return alias, nil
	}

	alias, err := c.next.ResolveAlias(ctx, playerID)
	if err != nil {
		return "", err
	}

	for _, cache := range c.caches {
		_ = cache.Set(ctx, playerID, alias)
	}
	return alias, nil
}
