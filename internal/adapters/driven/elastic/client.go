// Package elastic implements the search backend and document index against an
// Elasticsearch-compatible HTTP API. Plans render into the JSON query DSL;
// aggregations map onto terms and nested aggregations.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds Elasticsearch connection configuration
type Config struct {
	// BaseURL is the Elasticsearch endpoint (e.g., http://localhost:9200)
	BaseURL string

	// Index is the index holding the catalog documents
	Index string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL, index string) Config {
	return Config{
		BaseURL: baseURL,
		Index:   index,
		Timeout: 30 * time.Second,
	}
}

// Client is a minimal Elasticsearch HTTP client
type Client struct {
	baseURL    string
	index      string
	httpClient *http.Client
}

// NewClient creates a new Client
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		index:   cfg.Index,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// do sends a JSON request against an index-relative path and decodes the
// response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	url := fmt.Sprintf("%s/%s%s", c.baseURL, c.index, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("elasticsearch request failed: %s - %s", resp.Status, string(respBody))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// HealthCheck verifies the cluster is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/_cluster/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("elasticsearch health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("elasticsearch unhealthy: %s", resp.Status)
	}

	return nil
}
