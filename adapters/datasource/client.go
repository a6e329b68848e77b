// Package datasource reads the results API over HTTP.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"resultsdash/domain/results"
	"resultsdash/internal"
	"resultsdash/internal/errors"
	"resultsdash/ports"
)

// Config describes the results API
type Config struct {
	BaseURL string
	Timeout time.Duration
	// DataPath, when set, is the gjson path of the payload inside each response
	DataPath string
	APIKey   string
	Headers  map[string]string
}

// Client implements ports.DataSource. Payloads are cached by URL for the life of the process and
// concurrent requests for one URL share a single fetch. Failed fetches are not cached.
type Client struct {
	config     Config
	httpClient *http.Client
	group      singleflight.Group
	log        *internal.Logger

	mu    sync.RWMutex
	cache map[string][]byte
}

var _ ports.DataSource = (*Client)(nil)

// NewClient creates a client for the API rooted at config.BaseURL
func NewClient(config Config, logger *internal.Logger) *Client {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		log:   logger.With("datasource"),
		cache: make(map[string][]byte),
	}
}

// Constituencies implements ports.DataSource
func (c *Client) Constituencies(ctx context.Context) ([]results.Constituency, error) {
	var list []results.Constituency
	return list, c.get(ctx, "/constituencies.json", &list)
}

// Parties implements ports.DataSource
func (c *Client) Parties(ctx context.Context) ([]results.Party, error) {
	var list []results.Party
	return list, c.get(ctx, "/parties.json", &list)
}

// Issues implements ports.DataSource
func (c *Client) Issues(ctx context.Context) ([]results.Issue, error) {
	var list []results.Issue
	return list, c.get(ctx, "/issues.json", &list)
}

// Countries implements ports.DataSource
func (c *Client) Countries(ctx context.Context) ([]results.Country, error) {
	var list []results.Country
	return list, c.get(ctx, "/countries.json", &list)
}

// Results implements ports.DataSource
func (c *Client) Results(ctx context.Context, resource, slug string) (*results.Results, error) {
	if slug == "" {
		return nil, errors.InvalidInput("results slug cannot be empty")
	}
	var r results.Results
	path := "/" + url.PathEscape(resource) + "/" + url.PathEscape(slug) + "/results.json"
	if err := c.get(ctx, path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Cached reports how many payloads are cached
func (c *Client) Cached() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// get decodes the payload at path into out, fetching it on first use. Each call decodes afresh,
// so callers never share decoded values.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	u := c.config.BaseURL + path

	c.mu.RLock()
	payload, ok := c.cache[u]
	c.mu.RUnlock()

	if !ok {
		v, err, shared := c.group.Do(u, func() (interface{}, error) {
			return c.fetch(ctx, u)
		})
		if err != nil {
			return err
		}
		if shared {
			c.log.Trace("shared fetch of %s", u)
		}
		payload = v.([]byte)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return errors.ExternalServiceError("results API", fmt.Errorf("decoding %s: %w", u, err))
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := c.buildRequest(ctx, u)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("failed to build request for %s: %v", u, err))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("results API", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, errors.ExternalServiceError("results API", fmt.Errorf("failed to read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NotFound(u)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.ExternalServiceError("results API", fmt.Errorf("%s returned status %d", u, resp.StatusCode))
	}

	payload, err := c.extract(body)
	if err != nil {
		return nil, errors.ExternalServiceError("results API", fmt.Errorf("%s: %w", u, err))
	}

	c.mu.Lock()
	c.cache[u] = payload
	c.mu.Unlock()

	c.log.Debug("fetched %s (%d bytes) in %v", u, len(payload), time.Since(start))
	return payload, nil
}

// buildRequest creates a GET request with the configured headers and API key
func (c *Client) buildRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	if c.config.APIKey != "" {
		req.Header.Set("X-API-Key", c.config.APIKey)
	}
	return req, nil
}

// extract applies the configured data path
func (c *Client) extract(body []byte) ([]byte, error) {
	if c.config.DataPath == "" {
		if !gjson.ValidBytes(body) {
			return nil, fmt.Errorf("response is not valid JSON")
		}
		return body, nil
	}
	result := gjson.GetBytes(body, c.config.DataPath)
	if !result.Exists() {
		return nil, fmt.Errorf("data path '%s' not found in response", c.config.DataPath)
	}
	if !result.IsArray() && !result.IsObject() {
		return nil, fmt.Errorf("data path '%s' is not an array or object", c.config.DataPath)
	}
	return []byte(result.Raw), nil
}
