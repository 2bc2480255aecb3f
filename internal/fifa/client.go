package fifa

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the FIFA API root
	DefaultBaseURL = "https://api.fifa.com/api/v3"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 15 * time.Second

	// DefaultConcurrency bounds parallel timeline and player requests
	DefaultConcurrency = 4

	UserAgent = "worldcup-events/1.0 (github.com/pfrederiksen/worldcup-events)"
)

// ErrPlayerNotFound is returned by ResolveAlias when the player is unknown
// or has no alias.
var ErrPlayerNotFound = errors.New("player not found")

// APIError is a non-200 response from the API.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("fifa api %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fifa api %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Config holds the configuration for the API client
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	Concurrency int
	// Language used for player aliases. Team names follow the locale
	// passed to FetchMatches.
	Language string
}

// Client talks to the FIFA API
type Client struct {
	baseURL     string
	language    string
	concurrency int
	httpClient  *http.Client
}

// NewClient creates a client, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		language:    cfg.Language,
		concurrency: cfg.Concurrency,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// response is a successful API body with its freshness token.
type response struct {
	body []byte
	etag string
}

// get performs a GET request against the API.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*response, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, URL: path, Body: snippet}
	}

	etag := strings.Trim(resp.Header.Get("ETag"), `"`)
	if etag == "" {
		sum := sha256.Sum256(body)
		etag = hex.EncodeToString(sum[:])
	}

	return &response{body: body, etag: etag}, nil
}
