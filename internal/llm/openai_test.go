package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acedatacloud/dashsnap/internal/domain"
)

// TestNewOpenAIProvider tests creating an OpenAI provider
func TestNewOpenAIProvider(t *testing.T) {
	cfg := ProviderConfig{
		APIKey:      "test-key",
		BaseURL:     "https://api.acedata.cloud/",
		Model:       "gpt-4o-mini",
		MaxTokens:   260,
		Temperature: 0.2,
	}

	provider, err := NewOpenAIProvider(cfg, &http.Client{Timeout: 30 * time.Second})
	require.NoError(t, err)
	assert.NotNil(t, provider)
	assert.Equal(t, "openai", provider.Name())
	assert.Equal(t, "https://api.acedata.cloud", provider.baseURL)
}

// TestOpenAIProvider_Complete_Success tests a successful completion
func TestOpenAIProvider_Complete_Success(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, openAIUserAgent, r.Header.Get("User-Agent"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "test-id",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"title\": \"ok\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	cfg := ProviderConfig{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		Model:       "gpt-4o-mini",
		MaxTokens:   260,
		Temperature: 0.2,
	}
	provider, err := NewOpenAIProvider(cfg, server.Client())
	require.NoError(t, err)

	ctx := context.Background()
	req := &domain.LLMRequest{
		Messages: []domain.LLMMessage{
			{Role: domain.RoleSystem, Content: "You write release notes."},
			{Role: domain.RoleUser, Content: "Summarize."},
		},
		JSONObject: true,
	}

	resp, err := provider.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, `{"title": "ok"}`, resp.Content)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 10, resp.Usage.PromptTokens)
	assert.Equal(t, 5, resp.Usage.CompletionTokens)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.Equal(t, float64(260), gotBody["max_tokens"])
	assert.Equal(t, 0.2, gotBody["temperature"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, gotBody["response_format"])

	messages, ok := gotBody["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "system", first["role"])
}

// TestOpenAIProvider_Complete_NoResponseFormat tests the plain-text mode
func TestOpenAIProvider_Complete_NoResponseFormat(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`{"choices": [{"message": {"content": "hi"}}]}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	}, server.Client())
	require.NoError(t, err)

	_, err = provider.Complete(context.Background(), &domain.LLMRequest{
		Messages: []domain.LLMMessage{{Role: domain.RoleUser, Content: "Hello"}},
	})
	require.NoError(t, err)
	assert.NotContains(t, gotBody, "response_format")
}

// TestOpenAIProvider_Complete_APIError tests API error payload handling
func TestOpenAIProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Invalid API key", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(ProviderConfig{
		APIKey:  "bad-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	}, server.Client())
	require.NoError(t, err)

	resp, err := provider.Complete(context.Background(), &domain.LLMRequest{
		Messages: []domain.LLMMessage{{Role: domain.RoleUser, Content: "Hello"}},
	})
	assert.Error(t, err)
	assert.Nil(t, resp)

	var llmErr *domain.LLMError
	assert.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "openai", llmErr.Provider)
	assert.Equal(t, http.StatusUnauthorized, llmErr.StatusCode)
	assert.Contains(t, llmErr.Message, "Invalid API key")
}

// TestOpenAIProvider_Complete_RateLimit tests rate limit classification
func TestOpenAIProvider_Complete_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	}, server.Client())
	require.NoError(t, err)

	_, err = provider.Complete(context.Background(), &domain.LLMRequest{
		Messages: []domain.LLMMessage{{Role: domain.RoleUser, Content: "Hello"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMRateLimited)
}

// TestOpenAIProvider_Complete_NonJSONErrorBody tests a gateway-style error
func TestOpenAIProvider_Complete_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>502 Bad Gateway</html>"))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	}, server.Client())
	require.NoError(t, err)

	_, err = provider.Complete(context.Background(), &domain.LLMRequest{
		Messages: []domain.LLMMessage{{Role: domain.RoleUser, Content: "Hello"}},
	})
	require.Error(t, err)

	var llmErr *domain.LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, http.StatusBadGateway, llmErr.StatusCode)
}

// TestOpenAIProvider_Complete_EmptyChoices tests an empty choices list
func TestOpenAIProvider_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "x", "model": "gpt-4o-mini", "choices": []}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	}, server.Client())
	require.NoError(t, err)

	resp, err := provider.Complete(context.Background(), &domain.LLMRequest{
		Messages: []domain.LLMMessage{{Role: domain.RoleUser, Content: "Hello"}},
	})
	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "no choices")
}

// TestOpenAIProvider_Complete_ContextCancelled tests context cancellation
func TestOpenAIProvider_Complete_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	}, server.Client())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = provider.Complete(ctx, &domain.LLMRequest{
		Messages: []domain.LLMMessage{{Role: domain.RoleUser, Content: "Hello"}},
	})
	assert.Error(t, err)
}

// TestOpenAIProvider_Close tests closing the provider
func TestOpenAIProvider_Close(t *testing.T) {
	provider, err := NewOpenAIProvider(ProviderConfig{
		APIKey:  "test-key",
		BaseURL: "https://api.acedata.cloud",
		Model:   "gpt-4o-mini",
	}, &http.Client{})
	require.NoError(t, err)

	assert.NoError(t, provider.Close())
}
