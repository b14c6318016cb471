package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// mockLLM records the options of the last call.
type mockLLM struct {
	response string
	err      error
	prompts  []string
	lastOpts llms.CallOptions
}

func (m *mockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	m.lastOpts = opts

	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if tc, ok := messages[0].Parts[0].(llms.TextContent); ok {
			m.prompts = append(m.prompts, tc.Text)
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *mockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLangChain_Invoke(t *testing.T) {
	llm := &mockLLM{response: "I will research solar power."}
	inv := NewLangChain(llm, 0.2)

	out, err := inv.Invoke(context.Background(), "verify please")
	require.NoError(t, err)
	assert.Equal(t, "I will research solar power.", out)
	assert.Equal(t, []string{"verify please"}, llm.prompts)
	assert.False(t, llm.lastOpts.JSONMode)
	assert.InDelta(t, 0.2, llm.lastOpts.Temperature, 1e-9)
}

func TestLangChain_InvokeJSON(t *testing.T) {
	llm := &mockLLM{response: `{"need_clarification": false}`}
	inv := NewLangChain(llm, 0)

	out, err := InvokeJSON(context.Background(), inv, "clarify")
	require.NoError(t, err)
	assert.Equal(t, `{"need_clarification": false}`, out)
	assert.True(t, llm.lastOpts.JSONMode)
}

func TestLangChain_Errors(t *testing.T) {
	inv := NewLangChain(&mockLLM{err: errors.New("rate limited")}, 0)
	_, err := inv.Invoke(context.Background(), "p")
	assert.ErrorContains(t, err, "rate limited")

	inv = NewLangChain(&mockLLM{response: "   "}, 0)
	_, err = inv.Invoke(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
