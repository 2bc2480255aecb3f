package render

import (
	"context"
	"sync"

	"github.com/pfrederiksen/worldcup-events/internal/match"
	"golang.org/x/sync/errgroup"
)

// AliasResolver looks up the display name of a player.
type AliasResolver interface {
	ResolveAlias(ctx context.Context, playerID string) (string, error)
}

// Aliases is the outcome of resolving the players of a batch of events.
type Aliases struct {
	Names  map[string]string
	Errors map[string]error
}

// For returns the name to show for the player of e: the alias stored on the
// event, the resolved alias, the player id, or "unknown".
func (a Aliases) For(e match.EventRecord) string {
	if e.PlayerAlias != "" {
		return e.PlayerAlias
	}
	if name := a.Names[e.PlayerID]; name != "" {
		return name
	}
	if e.PlayerID != "" {
		return e.PlayerID
	}
	return "unknown"
}

// ResolveAliases resolves every distinct player of notables with at most
// limit lookups in flight. Failures are collected, never returned, so a
// lookup error cannot fail a render.
func ResolveAliases(ctx context.Context, resolver AliasResolver, notables []match.Notable, limit int) Aliases {
	out := Aliases{
		Names:  make(map[string]string),
		Errors: make(map[string]error),
	}
	if resolver == nil {
		return out
	}

	ids := make([]string, 0)
	seen := make(map[string]bool)
	for _, n := range notables {
		id := n.Event.PlayerID
		if id == "" || n.Event.PlayerAlias != "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return out
	}

	if limit <= 0 {
		limit = 4
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			name, err := resolver.ResolveAlias(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Errors[id] = err
				return nil
			}
			out.Names[id] = name
			return nil
		})
	}
	_ = g.Wait()

	return out
}
