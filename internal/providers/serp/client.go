// Package serp wraps the SerpAPI Google endpoint for news and general web
// searches, normalized into the common article and web result shapes.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://serpapi.com/search"
	placeholderURL = "https://via.placeholder.com/150"
)

type Config struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// Client is the shared transport for both search engines; NewsClient and
// WebClient layer the per-domain normalization on top of it.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		http:    httpClient,
	}
}

func (c *Client) Enabled() bool { return c.apiKey != "" }

func (c *Client) getJSON(ctx context.Context, params url.Values, dest any) error {
	params.Set("api_key", c.apiKey)
	params.Set("engine", "google")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("serpapi HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dest)
}
