package search

import (
	"fmt"
	"strings"
)

// Options selects and configures a search provider.
type Options struct {
	Provider   string
	APIKey     string
	BaseURL    string
	MaxResults int
}

// New builds the Searcher named by opts.Provider ("tavily" or "brave").
func New(opts Options) (Searcher, error) {
	switch strings.ToLower(opts.Provider) {
	case "tavily", "":
		tOpts := []TavilyOption{}
		if opts.BaseURL != "" {
			tOpts = append(tOpts, WithTavilyBaseURL(opts.BaseURL))
		}
		if opts.MaxResults > 0 {
			tOpts = append(tOpts, WithTavilyMaxResults(opts.MaxResults))
		}
		return NewTavily(opts.APIKey, tOpts...)
	case "brave":
		bOpts := []BraveOption{}
		if opts.BaseURL != "" {
			bOpts = append(bOpts, WithBraveBaseURL(opts.BaseURL))
		}
		if opts.MaxResults > 0 {
			bOpts = append(bOpts, WithBraveCount(opts.MaxResults))
		}
		return NewBrave(opts.APIKey, bOpts...)
	default:
		return nil, fmt.Errorf("unknown search provider %q", opts.Provider)
	}
}
