package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/tidwall/gjson"
)

// anthropicErrorCodes maps Anthropic error types onto the shared provider codes
var anthropicErrorCodes = map[string]string{
	"rate_limit_error":      "rate_limit_exceeded",
	"overloaded_error":      "server_error",
	"api_error":             "server_error",
	"timeout_error":         "timeout",
	"not_found_error":       "model_not_found",
	"invalid_request_error": "invalid_request_error",
}

// anthropicAPIError reads the error type and message from the response body.
// Unmapped types such as authentication_error are kept as the code as is.
func anthropicAPIError(provider string, apiErr *anthropic.Error, cause error) *models.ProviderError {
	raw := apiErr.RawJSON()
	errType := gjson.Get(raw, "error.type").String()
	message := gjson.Get(raw, "error.message").String()
	if message == "" {
		message = http.StatusText(apiErr.StatusCode)
	}

	code, ok := anthropicErrorCodes[errType]
	if !ok {
		code = errType
	}
	return newProviderError(provider, code, apiErr.StatusCode, message, cause)
}

// AnthropicGateway reaches the Anthropic Messages API
type AnthropicGateway struct {
	name      string
	client    *anthropic.Client
	timeoutMs int
}

// NewAnthropicGateway builds a client from provider configuration
func NewAnthropicGateway(name string, cfg models.ProviderConfig) (*AnthropicGateway, error) {
	if cfg.APIKey == "" {
		return nil, models.NewValidationError("API key not configured for provider "+name, nil)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	for key, value := range cfg.Headers {
		clientOpts = append(clientOpts, option.WithHeader(key, value))
	}

	client := anthropic.NewClient(clientOpts...)
	return &AnthropicGateway{name: name, client: &client, timeoutMs: cfg.TimeoutMs}, nil
}

func (g *AnthropicGateway) Name() string { return g.name }

// Complete sends one non-streaming Messages request
func (g *AnthropicGateway) Complete(ctx context.Context, req models.CompletionRequest) (*models.CompletionResult, error) {
	ctx, cancel := withTimeout(ctx, g.timeoutMs)
	defer cancel()

	params := buildAnthropicParams(req)

	startTime := time.Now()
	message, err := g.client.Messages.New(ctx, params)
	if err != nil {
		fiberlog.Debugf("[%s] %s message request failed after %v: %v", req.RequestID, g.name, time.Since(startTime), err)
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, anthropicAPIError(g.name, apiErr, err)
		}
		return nil, transportError(ctx, g.name, err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &models.CompletionResult{
		Text:         text.String(),
		FinishReason: anthropicFinishReason(message.StopReason),
		TotalTokens:  message.Usage.InputTokens + message.Usage.OutputTokens,
	}, nil
}

// buildAnthropicParams moves system and developer turns into the system prompt
func buildAnthropicParams(req models.CompletionRequest) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam

	for _, m := range req.Messages {
		switch m.Role {
		case models.RoleSystem, models.RoleDeveloper:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case models.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  messages,
		System:    system,
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	return params
}

func anthropicFinishReason(reason anthropic.StopReason) models.FinishReason {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return models.FinishStop
	case anthropic.StopReasonMaxTokens:
		return models.FinishLength
	default:
		return models.FinishOther
	}
}
