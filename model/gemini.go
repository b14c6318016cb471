package model

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini invokes Google's Gemini API through the genai SDK.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

var _ StructuredInvoker = (*Gemini)(nil)

// GeminiOptions configures the Gemini invoker.
type GeminiOptions struct {
	APIKey      string
	Model       string
	BaseURL     string // overrides the API endpoint, mainly for tests
	Temperature float64
}

// NewGemini creates a Gemini invoker.
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Gemini{
		client:      client,
		model:       opts.Model,
		temperature: float32(opts.Temperature),
	}, nil
}

// Invoke generates free text.
func (g *Gemini) Invoke(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, "")
}

// InvokeJSON asks Gemini for an application/json response.
func (g *Gemini) InvokeJSON(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, "application/json")
}

func (g *Gemini) generate(ctx context.Context, prompt, mimeType string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if mimeType != "" {
		cfg.ResponseMIMEType = mimeType
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	out := resp.Text()
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
