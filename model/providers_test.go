package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompatible_InvokeJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "deepseek-chat",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"need_clarification\": true, \"question\": \"Which region?\"}"}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	inv, err := NewCompatible("test-key", "deepseek-chat", srv.URL+"/v1", 0)
	require.NoError(t, err)

	out, err := inv.InvokeJSON(context.Background(), "clarify this")
	require.NoError(t, err)
	assert.Contains(t, out, "Which region?")

	assert.Equal(t, "deepseek-chat", got["model"])
	format, ok := got["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])

	temp, ok := got["temperature"].(float64)
	require.True(t, ok, "zero temperature must still be sent")
	assert.InDelta(t, 0, temp, 1e-6)
}

func TestCompatible_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": []}`))
	}))
	defer srv.Close()

	inv, err := NewCompatible("k", "m", srv.URL, 0)
	require.NoError(t, err)
	_, err = inv.Invoke(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCompatible_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	inv, err := NewCompatible("k", "m", srv.URL, 0)
	require.NoError(t, err)
	_, err = inv.Invoke(context.Background(), "p")
	assert.Error(t, err)
}

func TestGemini_Invoke(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-test")
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"))
		_ = json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "I will research wind turbines."}]},
				"finishReason": "STOP"
			}]
		}`))
	}))
	defer srv.Close()

	inv, err := NewGemini(context.Background(), GeminiOptions{
		APIKey:  "test-key",
		Model:   "gemini-test",
		BaseURL: srv.URL + "/",
	})
	require.NoError(t, err)

	out, err := inv.InvokeJSON(context.Background(), "verify")
	require.NoError(t, err)
	assert.Equal(t, "I will research wind turbines.", out)

	cfg, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/json", cfg["responseMimeType"])
}
