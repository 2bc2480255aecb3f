package fifa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

type playerJSON struct {
	IdPlayer string      `json:"IdPlayer"`
	Alias    []localized `json:"Alias"`
	Name     []localized `json:"Name"`
}

// ResolveAlias returns the display alias of a player in the client's
// language, falling back to the player's full name.
func (c *Client) ResolveAlias(ctx context.Context, playerID string) (string, error) {
	if playerID == "" {
		return "", ErrPlayerNotFound
	}

	resp, err := c.get(ctx, "/players/"+url.PathEscape(playerID), nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
		}
		return "", err
	}

	var player playerJSON
	if err := json.Unmarshal(resp.body, &player); err != nil {
		return "", fmt.Errorf("parsing player %s: %w", playerID, err)
	}

	if alias := pick(player.Alias, c.language); alias != "" {
		return alias, nil
	}
	if name := pick(player.Name, c.language); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
}
