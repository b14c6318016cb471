package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// Tavily searches through the Tavily API.
type Tavily struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Depth      string
	client     *http.Client
}

// TavilyOption configures a Tavily searcher.
type TavilyOption func(*Tavily)

// WithTavilyBaseURL overrides the API endpoint.
func WithTavilyBaseURL(baseURL string) TavilyOption {
	return func(t *Tavily) {
		t.BaseURL = baseURL
	}
}

// WithTavilyMaxResults sets the number of results (1-20).
func WithTavilyMaxResults(n int) TavilyOption {
	return func(t *Tavily) {
		t.MaxResults = min(max(n, 1), 20)
	}
}

// WithTavilyDepth sets the search depth ("basic" or "advanced").
func WithTavilyDepth(depth string) TavilyOption {
	return func(t *Tavily) {
		if depth != "" {
			t.Depth = depth
		}
	}
}

// WithTavilyHTTPClient replaces the HTTP client.
func WithTavilyHTTPClient(c *http.Client) TavilyOption {
	return func(t *Tavily) {
		t.client = c
	}
}

// NewTavily creates a Tavily searcher. If apiKey is empty, TAVILY_API_KEY is used.
func NewTavily(apiKey string, opts ...TavilyOption) (*Tavily, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not set")
	}

	t := &Tavily{
		APIKey:     apiKey,
		BaseURL:    "https://api.tavily.com/search",
		MaxResults: 5,
		Depth:      "basic",
	}
	for _, opt := range opts {
		opt(t)
	}
	t.client = defaultClient(t.client)
	return t, nil
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search posts query to Tavily.
func (t *Tavily) Search(ctx context.Context, query string) ([]Result, error) {
	payload, err := json.Marshal(map[string]any{
		"query":        query,
		"api_key":      t.APIKey,
		"search_depth": t.Depth,
		"max_results":  t.MaxResults,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api returned status: %d", resp.StatusCode)
	}

	var body tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]Result, 0, len(body.Results))
	for _, r := range body.Results {
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Content: plainText(r.Content),
		})
	}
	return results, nil
}
