package model

import (
	"context"
	"fmt"
	"strings"
)

// Provider names accepted by New.
const (
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderCompatible = "compatible"
)

// Options selects and configures a provider.
type Options struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
}

// New builds the invoker for opts.Provider.
func New(ctx context.Context, opts Options) (Invoker, error) {
	switch strings.ToLower(opts.Provider) {
	case ProviderOpenAI, "":
		return NewOpenAI(opts.APIKey, opts.Model, opts.BaseURL, opts.Temperature)
	case ProviderGemini, "google", "googleai":
		return NewGemini(ctx, GeminiOptions{
			APIKey:      opts.APIKey,
			Model:       opts.Model,
			BaseURL:     opts.BaseURL,
			Temperature: opts.Temperature,
		})
	case ProviderCompatible:
		return NewCompatible(opts.APIKey, opts.Model, opts.BaseURL, opts.Temperature)
	default:
		return nil, fmt.Errorf("unknown model provider %q", opts.Provider)
	}
}
