package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdsum/internal/domain"
)

func TestOpenAIClient_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"text_completion","created":1,"model":"m",
			"choices":[{"index":0,"text":"\n done \n","finish_reason":"stop","logprobs":null}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "test", Model: "qwen", Timeout: 5 * time.Second}, nil)
	text, err := c.Generate(context.Background(), domain.GenerationRequest{
		Endpoint:  srv.URL,
		Prompt:    "hello",
		MaxTokens: 128,
		Sampling:  domain.Sampling{Temperature: 0.2, RepetitionPenalty: 1.1, Stop: []string{"###"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "done", text)

	assert.Equal(t, "qwen", got["model"])
	assert.Equal(t, "hello", got["prompt"])
	assert.EqualValues(t, 128, got["max_tokens"])
	assert.EqualValues(t, 1.1, got["repetition_penalty"])
	assert.Equal(t, []any{"###"}, got["stop"])
	assert.NotContains(t, got, "top_p")
}

func TestOpenAIClient_StatusErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream down"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "test", Timeout: 5 * time.Second}, nil)
	_, err := c.Generate(context.Background(), domain.GenerationRequest{Endpoint: srv.URL, Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "502")
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"text_completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "test"}, nil)
	_, err := c.Generate(context.Background(), domain.GenerationRequest{Endpoint: srv.URL, Prompt: "p"})
	assert.ErrorIs(t, err, ErrTransport)
}
