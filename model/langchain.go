package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChain invokes any langchaingo llms.Model.
type LangChain struct {
	llm         llms.Model
	temperature float64
}

var _ StructuredInvoker = (*LangChain)(nil)

// NewLangChain wraps a langchaingo model.
func NewLangChain(llm llms.Model, temperature float64) *LangChain {
	return &LangChain{llm: llm, temperature: temperature}
}

// NewOpenAI creates a LangChain invoker backed by langchaingo's OpenAI client.
// Empty fields fall back to the client's defaults (OPENAI_API_KEY, OPENAI_MODEL).
func NewOpenAI(apiKey, modelName, baseURL string, temperature float64) (*LangChain, error) {
	var opts []openai.Option
	if apiKey != "" {
		opts = append(opts, openai.WithToken(apiKey))
	}
	if modelName != "" {
		opts = append(opts, openai.WithModel(modelName))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return NewLangChain(llm, temperature), nil
}

// Invoke sends prompt as a single human message.
func (l *LangChain) Invoke(ctx context.Context, prompt string) (string, error) {
	return l.generate(ctx, prompt, llms.WithTemperature(l.temperature))
}

// InvokeJSON sends prompt with JSON mode enabled.
func (l *LangChain) InvokeJSON(ctx context.Context, prompt string) (string, error) {
	return l.generate(ctx, prompt, llms.WithTemperature(l.temperature), llms.WithJSONMode())
}

func (l *LangChain) generate(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, l.llm, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("langchain generate: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
