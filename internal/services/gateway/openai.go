package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/openai/openai-go/v2"
	openaiOption "github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// OpenAIGateway reaches OpenAI or any OpenAI-compatible aggregator
type OpenAIGateway struct {
	name      string
	client    *openai.Client
	timeoutMs int
}

// NewOpenAIGateway builds a client from provider configuration.
// SDK-level retries are disabled; the fallback chain owns retry policy.
func NewOpenAIGateway(name string, cfg models.ProviderConfig) (*OpenAIGateway, error) {
	if name == "" {
		return nil, models.NewValidationError("provider name cannot be empty", nil)
	}
	if cfg.APIKey == "" {
		return nil, models.NewValidationError("API key not configured for provider "+name, nil)
	}

	opts := []openaiOption.RequestOption{
		openaiOption.WithAPIKey(cfg.APIKey),
		openaiOption.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openaiOption.WithBaseURL(cfg.BaseURL))
	}
	for key, value := range cfg.Headers {
		opts = append(opts, openaiOption.WithHeader(key, value))
	}
	if cfg.TimeoutMs > 0 {
		httpClient := &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond}
		opts = append(opts, openaiOption.WithHTTPClient(httpClient))
	}

	client := openai.NewClient(opts...)
	return &OpenAIGateway{name: name, client: &client, timeoutMs: cfg.TimeoutMs}, nil
}

func (g *OpenAIGateway) Name() string { return g.name }

// Complete issues one chat completion
func (g *OpenAIGateway) Complete(ctx context.Context, req models.CompletionRequest) (*models.CompletionResult, error) {
	ctx, cancel := withTimeout(ctx, g.timeoutMs)
	defer cancel()

	params := buildOpenAIParams(req)

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		fiberlog.Debugf("[%s] %s completion failed after %v: %v", req.RequestID, g.name, time.Since(start), err)
		return nil, g.mapError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return nil, emptyResponseError(g.name)
	}

	choice := resp.Choices[0]
	return &models.CompletionResult{
		Text:         choice.Message.Content,
		FinishReason: openAIFinishReason(choice.FinishReason),
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

func (g *OpenAIGateway) mapError(ctx context.Context, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error()
		}
		return newProviderError(g.name, apiErr.Code, apiErr.StatusCode, message, err)
	}
	return transportError(ctx, g.name, err)
}

func buildOpenAIParams(req models.CompletionRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: toOpenAIMessages(req.Messages),
	}

	if req.MaxTokens > 0 {
		switch req.TokenParamStyle {
		case models.TokenParamMaxCompletionTokens:
			params.MaxCompletionTokens = openai.Int(req.MaxTokens)
		default:
			params.MaxTokens = openai.Int(req.MaxTokens)
		}
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.ReasoningEffort != "" {
		params.ReasoningEffort = shared.ReasoningEffort(req.ReasoningEffort)
	}
	if req.Verbosity != "" {
		params.Verbosity = openai.ChatCompletionNewParamsVerbosity(req.Verbosity)
	}
	return params
}

func toOpenAIMessages(messages []models.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case models.RoleDeveloper:
			out = append(out, openai.DeveloperMessage(m.Content))
		case models.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func openAIFinishReason(reason string) models.FinishReason {
	switch reason {
	case "stop":
		return models.FinishStop
	case "length":
		return models.FinishLength
	default:
		return models.FinishOther
	}
}
