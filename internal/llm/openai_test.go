package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAITestServer(t *testing.T, handler http.HandlerFunc) (*OpenAIClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})
	return client, srv
}

func completionJSON(content string) string {
	return `{"choices": [{"message": {"content": ` + mustQuote(content) + `}, "finish_reason": "stop"}]}`
}

func mustQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestOpenAIComplete(t *testing.T) {
	var captured chatRequest
	client, _ := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionJSON("  the answer  ")))
	})

	got, err := client.Complete(context.Background(), Request{
		SystemBlocks:      []string{"rules", "style"},
		EvidenceContext:   "evidence block",
		ConversationBrief: "User: hi",
		UserQuery:         "what are the limits?",
		MaxOutputTokens:   2600,
	})
	require.NoError(t, err)
	assert.Equal(t, "the answer", got)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "rules\n\nstyle")
	assert.Contains(t, captured.Messages[1].Content, "Context evidence:\nevidence block")
	assert.Contains(t, captured.Messages[1].Content, "Conversation so far:\nUser: hi")
	assert.Contains(t, captured.Messages[1].Content, "Question: what are the limits?")
	assert.Equal(t, 2600, captured.MaxTokens)
	assert.InDelta(t, 0.1, captured.Temperature, 1e-9)
}

func TestOpenAIRetryOn429(t *testing.T) {
	var calls atomic.Int32
	client, _ := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(completionJSON("eventually")))
	})

	got, err := client.Complete(context.Background(), Request{UserQuery: "q"})
	require.NoError(t, err)
	assert.Equal(t, "eventually", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIPermanentErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "bad request"}}`))
	})

	_, err := client.Complete(context.Background(), Request{UserQuery: "q"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIMissingKey(t *testing.T) {
	client := NewOpenAIClient(OpenAIConfig{})
	_, err := client.Complete(context.Background(), Request{UserQuery: "q"})
	assert.Error(t, err)
}

func TestFactory(t *testing.T) {
	t.Run("openai default", func(t *testing.T) {
		c, err := New(FactoryConfig{APIKey: "k"})
		require.NoError(t, err)
		assert.IsType(t, &OpenAIClient{}, c)
	})

	t.Run("gemini", func(t *testing.T) {
		c, err := New(FactoryConfig{Provider: "gemini", APIKey: "k"})
		require.NoError(t, err)
		assert.IsType(t, &GeminiClient{}, c)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(FactoryConfig{Provider: "oracle"})
		assert.Error(t, err)
	})
}
