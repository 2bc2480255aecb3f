package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	gistFilename = "worldcup-snapshot.json"
	gistTimeout  = 15 * time.Second
)

// gistAPIURL is a variable so tests can point it at a local server.
var gistAPIURL = "https://api.github.com/gists"

// GistBackend stores the snapshot as a file in a GitHub Gist
type GistBackend struct {
	gistID      string
	githubToken string
	httpClient  *http.Client
}

// NewGistBackend creates a new Gist-based backend
func NewGistBackend(gistID, githubToken string) (*GistBackend, error) {
	if gistID == "" {
		return nil, fmt.Errorf("gist ID is required")
	}
	if githubToken == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}

	return &GistBackend{
		gistID:      gistID,
		githubToken: githubToken,
		httpClient: &http.Client{
			Timeout: gistTimeout,
		},
	}, nil
}

func (g *GistBackend) String() string {
	return "gist:" + g.gistID
}

func (g *GistBackend) newRequest(ctx context.Context, method string, body []byte) (*http.Request, error) {
	url := fmt.Sprintf("%s/%s", gistAPIURL, g.gistID)

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("token %s", g.githubToken))
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Read fetches the snapshot file from the Gist. A Gist without the file
// reports ErrNotFound; a missing Gist is an error.
func (g *GistBackend) Read(ctx context.Context) ([]byte, error) {
	req, err := g.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Don't include response body in error to prevent information leakage
		return nil, fmt.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}

	var gistResp struct {
		Files map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gistResp); err != nil {
		return nil, fmt.Errorf("decoding gist response: %w", err)
	}

	file, exists := gistResp.Files[gistFilename]
	if !exists {
		return nil, ErrNotFound
	}
	return []byte(file.Content), nil
}

// Write updates the snapshot file in the Gist.
func (g *GistBackend) Write(ctx context.Context, data []byte) error {
	payload := map[string]interface{}{
		"files": map[string]interface{}{
			gistFilename: map[string]string{
				"content": string(data),
			},
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := g.newRequest(ctx, http.MethodPatch, payloadBytes)
	if err != nil {
		return err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("updating gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Don't include response body in error to prevent information leakage
		return fmt.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}
	return nil
}
