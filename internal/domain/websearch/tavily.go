// Package websearch implements the web-search route: an external search
// provider client plus cited answer synthesis.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrSearchUnavailable wraps any failure of the external search provider.
// The responder recovers it into an explicit fallback answer.
var ErrSearchUnavailable = errors.New("external search unavailable")

// SearchHit is one result from the search provider.
type SearchHit struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher is the external search provider contract.
type Searcher interface {
	Search(ctx context.Context, query, depth string, maxResults int) ([]SearchHit, error)
}

// TavilyClient calls the Tavily REST search API.
type TavilyClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewTavilyClient returns a client for the given endpoint and key.
func NewTavilyClient(baseURL, apiKey string) *TavilyClient {
	return &TavilyClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type tavilySearchRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilySearchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search runs one POST /search call. maxResults is clamped to Tavily's
// accepted 1..10 range. All failures wrap ErrSearchUnavailable so callers
// can recover uniformly.
func (c *TavilyClient) Search(ctx context.Context, query, depth string, maxResults int) ([]SearchHit, error) {
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > 10 {
		maxResults = 10
	}

	body, err := json.Marshal(tavilySearchRequest{
		Query:       query,
		SearchDepth: depth,
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrSearchUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrSearchUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck
		return nil, fmt.Errorf("%w: status %d: %s", ErrSearchUnavailable, resp.StatusCode, raw)
	}

	var parsed tavilySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchUnavailable, err)
	}

	hits := make([]SearchHit, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		hits = append(hits, SearchHit{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return hits, nil
}
