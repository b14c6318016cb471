package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// NoResults is the content handed to the summarizer when a search yields nothing.
const NoResults = "No search results found."

const defaultHTTPTimeout = 15 * time.Second

// Result is a single web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// FormatResults renders results as "Title: ...\nContent: ...\n\n" blocks. Missing
// fields render as N/A. An empty slice yields NoResults.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return NoResults
	}
	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "Title: %s\n", orNA(r.Title))
		fmt.Fprintf(&sb, "Content: %s\n\n", orNA(r.Content))
	}
	return sb.String()
}

// Run searches and formats in one step. Any failure, including a nil searcher,
// degrades to NoResults together with the error for the caller to log.
func Run(ctx context.Context, s Searcher, query string) (string, error) {
	if s == nil {
		return NoResults, fmt.Errorf("no searcher configured")
	}
	results, err := s.Search(ctx, query)
	if err != nil {
		return NoResults, err
	}
	return FormatResults(results), nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// plainText strips HTML markup (search engines wrap matched terms in <strong>).
func plainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}
