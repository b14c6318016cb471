package model

import (
	"context"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Compatible talks to any OpenAI-compatible chat completions endpoint
// (DeepSeek, vLLM, Ollama's /v1, ...).
type Compatible struct {
	client      *openai.Client
	model       string
	temperature float32
}

var _ StructuredInvoker = (*Compatible)(nil)

// NewCompatible creates an invoker for an OpenAI-compatible endpoint. An empty
// baseURL uses api.openai.com.
func NewCompatible(apiKey, modelName, baseURL string, temperature float64) (*Compatible, error) {
	if modelName == "" {
		return nil, fmt.Errorf("model name is required for compatible provider")
	}
	temp := float32(temperature)
	if temp == 0 {
		// go-openai omits a zero temperature; endpoints then use their own default.
		temp = math.SmallestNonzeroFloat32
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Compatible{
		client:      openai.NewClientWithConfig(cfg),
		model:       modelName,
		temperature: temp,
	}, nil
}

// Invoke generates free text.
func (c *Compatible) Invoke(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, nil)
}

// InvokeJSON requests a json_object response format.
func (c *Compatible) InvokeJSON(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
}

func (c *Compatible) complete(ctx context.Context, prompt string, format *openai.ChatCompletionResponseFormat) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
