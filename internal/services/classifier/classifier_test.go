package classifier

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Egham-7/adaptive-chat/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTag(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		status  int
		message string
		want    models.FailureKind
	}{
		{"rate limit code", "rate_limit_exceeded", 0, "", models.FailureRateLimited},
		{"quota code", "insufficient_quota", 400, "", models.FailureQuotaExceeded},
		{"server error code", "server_error", 0, "", models.FailureServerError},
		{"timeout code", "timeout", 0, "", models.FailureTimeout},
		{"model not found code", "model_not_found", 404, "", models.FailureModelNotFound},
		{"invalid request code", "invalid_request_error", 400, "", models.FailureInvalidRequest},
		{"status 429", "", 429, "", models.FailureRateLimited},
		{"status 500", "", 500, "", models.FailureServerError},
		{"status 503", "", 503, "", models.FailureServerError},
		{"message rate limit", "", 0, "Rate Limit reached for org", models.FailureRateLimited},
		{"message quota", "", 0, "You exceeded your current QUOTA", models.FailureQuotaExceeded},
		{"message timeout", "", 0, "request Timeout after 30s", models.FailureTimeout},
		{"message server error", "", 0, "internal server error", models.FailureServerError},
		{"message unavailable", "", 0, "model temporarily unavailable", models.FailureUnavailable},
		{"plain 400", "", 400, "invalid request: bad schema", models.FailureRejected},
		{"plain 401", "", 401, "bad api key", models.FailureRejected},
		{"nothing", "", 0, "boom", models.FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tag(tt.code, tt.status, tt.message))
		})
	}
}

func TestClassify_StatusCodes(t *testing.T) {
	for _, status := range []int{429, 500, 502, 503, 504} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			err := &models.ProviderError{Provider: "openai", StatusCode: status, Message: "nope"}
			got := Classify(err)
			assert.True(t, got.Retryable)
		})
	}

	err := &models.ProviderError{Provider: "openai", StatusCode: 400, Message: "invalid request: bad schema"}
	got := Classify(err)
	assert.False(t, got.Retryable)
	assert.Equal(t, models.FailureRejected, got.Kind)
	assert.Equal(t, "invalid request: bad schema", got.Reason)
}

func TestClassify_TaggedKindWins(t *testing.T) {
	err := &models.ProviderError{Provider: "openai", Kind: models.FailureTimeout, StatusCode: 400}
	got := Classify(fmt.Errorf("round 1: %w", err))
	assert.True(t, got.Retryable)
	assert.Equal(t, models.FailureTimeout, got.Kind)
}

func TestClassify_Reason(t *testing.T) {
	withCode := Classify(&models.ProviderError{Provider: "p", Code: "rate_limit_exceeded"})
	assert.Equal(t, "rate_limit_exceeded", withCode.Reason)

	empty := Classify(&models.ProviderError{Provider: "p", StatusCode: 500})
	assert.Equal(t, "Unknown error", empty.Reason)
}

func TestClassify_ContextErrors(t *testing.T) {
	for _, err := range []error{context.Canceled, context.DeadlineExceeded} {
		got := Classify(fmt.Errorf("call aborted: %w", err))
		assert.True(t, got.Retryable)
		assert.Equal(t, models.FailureTimeout, got.Kind)
	}
}

func TestClassify_AppErrors(t *testing.T) {
	got := Classify(models.NewCircuitBreakerError("openai"))
	assert.True(t, got.Retryable)
	assert.Equal(t, models.FailureUnavailable, got.Kind)

	got = Classify(models.NewValidationError("messages are required", nil))
	assert.False(t, got.Retryable)
}

func TestClassify_PlainErrors(t *testing.T) {
	assert.True(t, Classify(errors.New("upstream Service Unavailable")).Retryable)
	assert.False(t, Classify(errors.New("malformed json")).Retryable)
}
