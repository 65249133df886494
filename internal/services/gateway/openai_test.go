package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services/classifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAITestGateway(t *testing.T, handler http.HandlerFunc, timeoutMs int) *OpenAIGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewOpenAIGateway("openai", models.ProviderConfig{
		Kind:      models.ProviderKindOpenAI,
		APIKey:    "test-key",
		BaseURL:   server.URL + "/v1/",
		TimeoutMs: timeoutMs,
	})
	require.NoError(t, err)
	return g
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestOpenAIGateway_Complete(t *testing.T) {
	var captured map[string]any
	g := newOpenAITestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		writeJSON(w, http.StatusOK, map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-5",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "length",
				"message":       map[string]any{"role": "assistant", "content": "partial answer"},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}, 0)

	result, err := g.Complete(context.Background(), models.CompletionRequest{
		Model: "gpt-5",
		Messages: []models.Message{
			{Role: models.RoleDeveloper, Content: "be brief"},
			{Role: models.RoleUser, Content: "hello"},
		},
		MaxTokens:       128,
		TokenParamStyle: models.TokenParamMaxCompletionTokens,
		ReasoningEffort: models.ReasoningEffortHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, "partial answer", result.Text)
	assert.Equal(t, models.FinishLength, result.FinishReason)
	assert.Equal(t, int64(15), result.TotalTokens)

	assert.Equal(t, "gpt-5", captured["model"])
	assert.EqualValues(t, 128, captured["max_completion_tokens"])
	assert.NotContains(t, captured, "max_tokens")
	assert.NotContains(t, captured, "temperature")
	assert.Equal(t, "high", captured["reasoning_effort"])

	msgs := captured["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "developer", msgs[0].(map[string]any)["role"])
}

func TestOpenAIGateway_LegacyTokenParamAndTemperature(t *testing.T) {
	var captured map[string]any
	g := newOpenAITestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "chatcmpl-2", "object": "chat.completion", "created": 1, "model": "gpt-4.1",
			"choices": []map[string]any{{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{"role": "assistant", "content": "done"},
			}},
			"usage": map[string]any{"total_tokens": 3},
		})
	}, 0)

	temp := 0.7
	result, err := g.Complete(context.Background(), models.CompletionRequest{
		Model:           "gpt-4.1",
		Messages:        []models.Message{{Role: models.RoleUser, Content: "hi"}},
		MaxTokens:       64,
		TokenParamStyle: models.TokenParamMaxTokens,
		Temperature:     &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, models.FinishStop, result.FinishReason)
	assert.EqualValues(t, 64, captured["max_tokens"])
	assert.NotContains(t, captured, "max_completion_tokens")
	assert.InDelta(t, 0.7, captured["temperature"], 1e-9)
}

func TestOpenAIGateway_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"overloaded", http.StatusServiceUnavailable, true},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newOpenAITestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]any{
					"error": map[string]any{"message": "invalid request: bad schema", "type": "invalid_request_error"},
				})
			}, 0)

			_, err := g.Complete(context.Background(), models.CompletionRequest{
				Model:    "gpt-5",
				Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
			})
			require.Error(t, err)

			var provErr *models.ProviderError
			require.ErrorAs(t, err, &provErr)
			assert.Equal(t, tt.status, provErr.StatusCode)
			assert.Equal(t, tt.retryable, classifier.Classify(err).Retryable)
		})
	}
}

func TestOpenAIGateway_TimeoutIsRetryable(t *testing.T) {
	g := newOpenAITestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50)

	_, err := g.Complete(context.Background(), models.CompletionRequest{
		Model:    "gpt-5",
		Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)

	got := classifier.Classify(err)
	assert.True(t, got.Retryable)
	assert.Equal(t, models.FailureTimeout, got.Kind)
}

func TestOpenAIGateway_CancelledContext(t *testing.T) {
	g := newOpenAITestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := g.Complete(ctx, models.CompletionRequest{
		Model:    "gpt-5",
		Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Equal(t, models.FailureTimeout, classifier.Classify(err).Kind)
}

func TestNewOpenAIGateway_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIGateway("openai", models.ProviderConfig{})
	assert.Error(t, err)
}
