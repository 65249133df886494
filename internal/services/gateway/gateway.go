// Package gateway adapts provider SDKs to a single "create chat completion"
// capability returning tagged failures.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services/classifier"
)

// Gateway performs one network call against one provider
type Gateway interface {
	Name() string
	Complete(ctx context.Context, req models.CompletionRequest) (*models.CompletionResult, error)
}

// withTimeout bounds one provider call by the configured timeout
func withTimeout(ctx context.Context, timeoutMs int) (context.Context, context.CancelFunc) {
	if timeoutMs <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
}

// newProviderError tags an API-level failure
func newProviderError(provider, code string, status int, message string, cause error) *models.ProviderError {
	return &models.ProviderError{
		Provider:   provider,
		Kind:       classifier.Tag(code, status, message),
		Code:       code,
		StatusCode: status,
		Message:    message,
		Cause:      cause,
	}
}

// transportError tags a failure that never produced an API response.
// Cancellation and deadlines become timeouts; anything else means the provider was unreachable.
func transportError(ctx context.Context, provider string, err error) *models.ProviderError {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &models.ProviderError{
			Provider: provider,
			Kind:     models.FailureTimeout,
			Code:     "timeout",
			Message:  fmt.Sprintf("request aborted: %v", err),
			Cause:    err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &models.ProviderError{
			Provider: provider,
			Kind:     models.FailureTimeout,
			Code:     "timeout",
			Message:  netErr.Error(),
			Cause:    err,
		}
	}

	return &models.ProviderError{
		Provider: provider,
		Kind:     models.FailureUnavailable,
		Message:  fmt.Sprintf("provider unavailable: %v", err),
		Cause:    err,
	}
}

// emptyResponseError is returned when a provider answers without any choice
func emptyResponseError(provider string) *models.ProviderError {
	return &models.ProviderError{
		Provider: provider,
		Kind:     models.FailureServerError,
		Code:     "server_error",
		Message:  "provider returned no choices",
	}
}
