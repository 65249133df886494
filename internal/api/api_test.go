package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	resp     *models.AIResponse
	err      error
	messages []models.Message
	opts     models.GenerateOptions
}

func (f *fakeGenerator) Generate(_ context.Context, messages []models.Message, opts models.GenerateOptions) (*models.AIResponse, error) {
	f.messages = messages
	f.opts = opts
	return f.resp, f.err
}

type fakeUsage struct {
	since time.Time
	limit int
}

func (f *fakeUsage) Recent(_ context.Context, limit int) ([]models.CompletionRecord, error) {
	f.limit = limit
	return []models.CompletionRecord{{RequestID: "req-1", Succeeded: true}}, nil
}

func (f *fakeUsage) Stats(_ context.Context, since time.Time) (*models.UsageStats, error) {
	f.since = since
	return &models.UsageStats{TotalRequests: 4, Succeeded: 3}, nil
}

func newTestApp(gen Generator, usage UsageReader, checks map[string]Pinger) *fiber.App {
	app := fiber.New()
	chat := NewChatHandler(gen, func() []string { return []string{"creative", "coder"} })
	app.Post("/v1/chat/generate", chat.Generate)
	app.Get("/v1/chat/personas", chat.Personas)

	usageHandler := NewUsageHandler(usage)
	app.Get("/v1/usage/stats", usageHandler.Stats)
	app.Get("/v1/usage/recent", usageHandler.Recent)

	app.Get("/health", NewHealthHandler(checks).HealthCheck)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func get(t *testing.T, app *fiber.App, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return body
}

func TestGenerate_Success(t *testing.T) {
	gen := &fakeGenerator{resp: &models.AIResponse{
		Content:            "hello there",
		ModelUsed:          "gpt-5-mini",
		Provider:           "openai",
		FallbackOccurred:   true,
		FallbackReason:     "openai/gpt-5 failed: overloaded",
		ContinuationRounds: 2,
		FinishReason:       models.FinishStop,
	}}
	app := newTestApp(gen, &fakeUsage{}, nil)

	resp, body := postJSON(t, app, "/v1/chat/generate", `{
		"messages": [{"role": "user", "content": "hi"}],
		"model": "gpt-5",
		"persona": "creative",
		"documents": [{"name": "a.txt", "text": "facts"}]
	}`, map[string]string{"X-Request-ID": "req-abc"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-abc", resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "hello there", body["content"])
	assert.Equal(t, "gpt-5-mini", body["model_used"])
	assert.Equal(t, true, body["fallback_occurred"])
	assert.EqualValues(t, 2, body["continuation_rounds"])

	assert.Equal(t, "req-abc", gen.opts.RequestID)
	assert.Equal(t, "gpt-5", gen.opts.Model)
	assert.Equal(t, models.Persona("creative"), gen.opts.Persona)
	require.Len(t, gen.opts.Documents, 1)
	assert.Equal(t, []models.Message{{Role: models.RoleUser, Content: "hi"}}, gen.messages)
}

func TestGenerate_GeneratesRequestID(t *testing.T) {
	gen := &fakeGenerator{resp: &models.AIResponse{Content: "ok"}}
	app := newTestApp(gen, &fakeUsage{}, nil)

	resp, _ := postJSON(t, app, "/v1/chat/generate", `{"messages":[{"role":"user","content":"hi"}]}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, gen.opts.RequestID)
	assert.Equal(t, gen.opts.RequestID, resp.Header.Get("X-Request-ID"))
}

func TestGenerate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		kind   string
	}{
		{"malformed body", `{"messages":`, nil, http.StatusBadRequest, "validation"},
		{"no messages", `{"messages":[]}`, nil, http.StatusBadRequest, "validation"},
		{"bad role", `{"messages":[{"role":"robot","content":"x"}]}`, nil, http.StatusBadRequest, "validation"},
		{
			"unknown persona",
			`{"messages":[{"role":"user","content":"x"}],"persona":"nope"}`,
			models.NewValidationError(`unknown persona "nope"`, nil),
			http.StatusBadRequest, "validation",
		},
		{
			"exhausted",
			`{"messages":[{"role":"user","content":"x"}]}`,
			models.NewExhaustedError(3, "overloaded", errors.New("upstream")),
			http.StatusBadGateway, "exhausted",
		},
		{
			"non-retryable provider failure",
			`{"messages":[{"role":"user","content":"x"}]}`,
			&models.ProviderError{Provider: "openai", Kind: models.FailureRejected, StatusCode: 400, Message: "invalid request: bad schema"},
			http.StatusBadGateway, "provider",
		},
		{
			"unexpected",
			`{"messages":[{"role":"user","content":"x"}]}`,
			errors.New("boom"),
			http.StatusInternalServerError, "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeGenerator{err: tt.err}, &fakeUsage{}, nil)

			resp, body := postJSON(t, app, "/v1/chat/generate", tt.body, nil)
			assert.Equal(t, tt.status, resp.StatusCode)

			detail := body["error"].(map[string]any)
			assert.Equal(t, tt.kind, detail["type"])
			assert.NotEmpty(t, detail["request_id"])
			assert.NotContains(t, detail["message"], "upstream")
		})
	}
}

func TestPersonas(t *testing.T) {
	app := newTestApp(&fakeGenerator{}, &fakeUsage{}, nil)

	resp, body := get(t, app, "/v1/chat/personas")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"creative", "coder"}, body["personas"])
}

func TestUsageEndpoints(t *testing.T) {
	usage := &fakeUsage{}
	app := newTestApp(&fakeGenerator{}, usage, nil)

	resp, body := get(t, app, "/v1/usage/stats?since=2026-01-02T03:04:05Z")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 4, body["total_requests"])
	assert.Equal(t, 2026, usage.since.Year())

	resp, _ = get(t, app, "/v1/usage/stats?since=yesterday")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = get(t, app, "/v1/usage/recent?limit=5")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, usage.limit)
	assert.Len(t, body["records"], 1)

	resp, _ = get(t, app, "/v1/usage/recent?limit=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	healthy := PingerFunc(func(context.Context) error { return nil })
	failing := PingerFunc(func(context.Context) error { return errors.New("down") })

	app := newTestApp(&fakeGenerator{}, &fakeUsage{}, map[string]Pinger{"redis": healthy, "database": nil})
	resp, body := get(t, app, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "disabled", checks["database"])

	app = newTestApp(&fakeGenerator{}, &fakeUsage{}, map[string]Pinger{"redis": failing})
	resp, body = get(t, app, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
}
