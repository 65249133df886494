package config

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOpenAI(t *testing.T, handler func(model string) (int, map[string]any)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		model, _ := body["model"].(string)

		status, payload := handler(model)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func completion(model, content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": finish,
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7},
	}
}

func testProfiles() []models.ModelProfile {
	return []models.ModelProfile{
		{Name: "deep", ModelID: "deep-1", MaxOutputTokens: 256, TokenParamStyle: models.TokenParamMaxCompletionTokens, DeepReasoning: true},
		{Name: "fast", ModelID: "fast-1", MaxOutputTokens: 128, TokenParamStyle: models.TokenParamMaxTokens, SupportsSystem: true, Priority: 1},
	}
}

func newTestServer(t *testing.T, b *Builder) *fiber.App {
	t.Helper()
	s := NewServerWithBuilder(b)
	app, err := s.Setup(context.Background())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestBuilder(t *testing.T) {
	cfg := New().
		Port("9090").
		LogLevel("debug").
		AddProvider(" OpenAI ", models.ProviderConfig{Kind: models.ProviderKindOpenAI, APIKey: "k"}).
		PrimaryProvider("OPENAI").
		WithContinuation(3, "").
		WithCircuitBreaker(models.CircuitBreakerConfig{FailureThreshold: 2}).
		Build()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Contains(t, cfg.Providers, "openai")
	assert.Equal(t, "openai", cfg.Routing.PrimaryProvider)
	assert.Equal(t, 3, cfg.Continuation.MaxRounds)
	assert.Equal(t, models.DefaultContinuationInstruction, cfg.Continuation.Instruction)
	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestBuilder_Defaults(t *testing.T) {
	b := New()
	assert.Nil(t, b.GetRateLimitConfig())
	assert.Nil(t, b.GetTimeoutConfig())
	assert.Nil(t, b.GetHeuristic())
	assert.Equal(t, models.DefaultMaxRounds, b.Build().Continuation.MaxRounds)

	b.WithRateLimit(10, time.Second).WithTimeout(5 * time.Second)
	assert.Equal(t, 10, b.GetRateLimitConfig().Max)
	assert.Equal(t, 5*time.Second, b.GetTimeoutConfig().Timeout)
}

func TestServer_SetupRejectsInvalidConfig(t *testing.T) {
	s := NewServerWithBuilder(New().PrimaryProvider("openai"))
	_, err := s.Setup(context.Background())
	assert.ErrorContains(t, err, "providers.openai")
}

func TestServer_GenerateEndToEnd(t *testing.T) {
	srv, calls := fakeOpenAI(t, func(model string) (int, map[string]any) {
		if model == "deep-1" {
			return http.StatusServiceUnavailable, map[string]any{
				"error": map[string]any{"message": "overloaded", "type": "server_error"},
			}
		}
		return http.StatusOK, completion(model, "hello there", "stop")
	})

	app := newTestServer(t, New().
		AddProvider("openai", models.ProviderConfig{
			Kind:    models.ProviderKindOpenAI,
			APIKey:  "test-key",
			BaseURL: srv.URL + "/v1/",
		}).
		PrimaryProvider("openai").
		WithPrimaryProfiles(testProfiles()...).
		WithDatabase(models.DatabaseConfig{
			Type:         models.SQLite,
			FilePath:     filepath.Join(t.TempDir(), "usage.db"),
			MaxOpenConns: 1,
		}))

	resp, body := doJSON(t, app, http.MethodPost, "/v1/chat/generate",
		`{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	assert.Equal(t, "hello there", body["content"])
	assert.Equal(t, "fast", body["model_used"])
	assert.Equal(t, true, body["fallback_occurred"])
	assert.Contains(t, body["fallback_reason"], "deep")
	assert.EqualValues(t, 2, calls.Load())

	assert.Eventually(t, func() bool {
		raw, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/usage/recent?limit=5", nil), -1)
		if err != nil {
			return false
		}
		defer raw.Body.Close()
		var recent struct {
			Records []models.CompletionRecord `json:"records"`
		}
		if err := json.NewDecoder(raw.Body).Decode(&recent); err != nil {
			return false
		}
		return len(recent.Records) == 1
	}, 2*time.Second, 20*time.Millisecond)

	_, stats := doJSON(t, app, http.MethodGet, "/v1/usage/stats", "")
	assert.EqualValues(t, 1, stats["total_requests"])
	assert.EqualValues(t, 1, stats["fallback_count"])
}

func TestServer_RoutesWithoutInfrastructure(t *testing.T) {
	srv, _ := fakeOpenAI(t, func(model string) (int, map[string]any) {
		return http.StatusOK, completion(model, "ok", "stop")
	})

	app := newTestServer(t, New().
		AddProvider("openai", models.ProviderConfig{Kind: models.ProviderKindOpenAI, APIKey: "k", BaseURL: srv.URL + "/v1/"}).
		PrimaryProvider("openai").
		WithPrimaryProfiles(testProfiles()...))

	resp, health := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	checks := health["checks"].(map[string]any)
	assert.Equal(t, "disabled", checks["redis"])
	assert.Equal(t, "disabled", checks["database"])

	resp, personas := doJSON(t, app, http.MethodGet, "/v1/chat/personas", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, personas["personas"])

	req := httptest.NewRequest(http.MethodGet, "/v1/usage/stats", nil)
	raw, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, raw.StatusCode)

	resp, welcome := doJSON(t, app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"openai"}, welcome["providers"])

	resp, body := doJSON(t, app, http.MethodPost, "/v1/chat/generate", `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "error")

	resp, selection := doJSON(t, app, http.MethodPost, "/v1/chat/select", `{"messages":[{"role":"user","content":"hi"}],"model":"fast"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	candidates := selection["candidates"].([]any)
	require.Len(t, candidates, 2)
	assert.Equal(t, "fast-1", candidates[0].(map[string]any)["model_id"])
	assert.Equal(t, "deep-1", candidates[1].(map[string]any)["model_id"])
}

func TestServer_CustomMiddlewareAndRateLimit(t *testing.T) {
	srv, _ := fakeOpenAI(t, func(model string) (int, map[string]any) {
		return http.StatusOK, completion(model, "ok", "stop")
	})

	var seen atomic.Int32
	app := newTestServer(t, New().
		AddProvider("openai", models.ProviderConfig{Kind: models.ProviderKindOpenAI, APIKey: "k", BaseURL: srv.URL + "/v1/"}).
		PrimaryProvider("openai").
		WithPrimaryProfiles(testProfiles()...).
		WithRateLimit(1, time.Minute).
		WithMiddleware(func(c *fiber.Ctx) error {
			seen.Add(1)
			return c.Next()
		}))

	first, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)

	assert.EqualValues(t, 1, seen.Load())
}

func TestServer_ModelRouterPicksPrimary(t *testing.T) {
	srv, calls := fakeOpenAI(t, func(model string) (int, map[string]any) {
		return http.StatusOK, completion(model, "routed", "stop")
	})
	router := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.ModelSelectionResponse{Model: "fast"})
	}))
	t.Cleanup(router.Close)

	app := newTestServer(t, New().
		AddProvider("openai", models.ProviderConfig{Kind: models.ProviderKindOpenAI, APIKey: "k", BaseURL: srv.URL + "/v1/"}).
		PrimaryProvider("openai").
		WithPrimaryProfiles(testProfiles()...).
		WithModelRouter(models.ModelRouterConfig{URL: router.URL}))

	resp, body := doJSON(t, app, http.MethodPost, "/v1/chat/generate",
		`{"messages":[{"role":"user","content":"quick question"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "fast", body["model_used"])
	assert.Equal(t, false, body["fallback_occurred"])
	assert.EqualValues(t, 1, calls.Load())
}
