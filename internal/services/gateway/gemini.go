package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Egham-7/adaptive-chat/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"google.golang.org/genai"
)

// GeminiGateway reaches the Gemini API
type GeminiGateway struct {
	name      string
	client    *genai.Client
	timeoutMs int
}

// NewGeminiGateway builds a client from provider configuration
func NewGeminiGateway(ctx context.Context, name string, cfg models.ProviderConfig) (*GeminiGateway, error) {
	if cfg.APIKey == "" {
		return nil, models.NewValidationError("API key not configured for provider "+name, nil)
	}

	httpOptions := genai.HTTPOptions{BaseURL: cfg.BaseURL}
	if len(cfg.Headers) > 0 {
		httpOptions.Headers = http.Header{}
		for key, value := range cfg.Headers {
			httpOptions.Headers.Set(key, value)
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGateway{name: name, client: client, timeoutMs: cfg.TimeoutMs}, nil
}

func (g *GeminiGateway) Name() string { return g.name }

// geminiStatusCodes maps Google API status names onto the shared provider codes
var geminiStatusCodes = map[string]string{
	"RESOURCE_EXHAUSTED": "rate_limit_exceeded",
	"DEADLINE_EXCEEDED":  "timeout",
	"NOT_FOUND":          "model_not_found",
	"INVALID_ARGUMENT":   "invalid_request_error",
	"INTERNAL":           "server_error",
	"UNAVAILABLE":        "server_error",
}

func geminiAPIError(provider string, apiErr genai.APIError, cause error) *models.ProviderError {
	code, ok := geminiStatusCodes[apiErr.Status]
	if !ok {
		code = strings.ToLower(apiErr.Status)
	}
	return newProviderError(provider, code, apiErr.Code, apiErr.Message, cause)
}

// Complete sends one non-streaming GenerateContent request.
// Reasoning effort and verbosity have no Gemini equivalent and are ignored.
func (g *GeminiGateway) Complete(ctx context.Context, req models.CompletionRequest) (*models.CompletionResult, error) {
	ctx, cancel := withTimeout(ctx, g.timeoutMs)
	defer cancel()

	contents, config := buildGeminiRequest(req)

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		fiberlog.Debugf("[%s] %s generate request failed: %v", req.RequestID, g.name, err)
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, geminiAPIError(g.name, apiErr, err)
		}
		return nil, transportError(ctx, g.name, err)
	}

	if len(resp.Candidates) == 0 {
		return nil, emptyResponseError(g.name)
	}

	result := &models.CompletionResult{
		Text:         geminiText(resp.Candidates[0]),
		FinishReason: geminiFinishReason(resp.Candidates[0].FinishReason),
	}
	if resp.UsageMetadata != nil {
		result.TotalTokens = int64(resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}

func buildGeminiRequest(req models.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	var system []*genai.Part
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case models.RoleSystem, models.RoleDeveloper:
			system = append(system, &genai.Part{Text: m.Content})
		case models.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{Parts: system}
	}
	return contents, config
}

func geminiText(candidate *genai.Candidate) string {
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		text.WriteString(part.Text)
	}
	return text.String()
}

func geminiFinishReason(reason genai.FinishReason) models.FinishReason {
	switch reason {
	case genai.FinishReasonStop:
		return models.FinishStop
	case genai.FinishReasonMaxTokens:
		return models.FinishLength
	default:
		return models.FinishOther
	}
}
