// Package classifier decides whether a provider failure justifies moving to
// the next candidate of a chain or must be returned to the caller.
package classifier

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/Egham-7/adaptive-chat/internal/models"
)

const unknownReason = "Unknown error"

// retryableCodes are provider error codes that always advance the chain
var retryableCodes = map[string]models.FailureKind{
	"rate_limit_exceeded":   models.FailureRateLimited,
	"insufficient_quota":    models.FailureQuotaExceeded,
	"server_error":          models.FailureServerError,
	"timeout":               models.FailureTimeout,
	"model_not_found":       models.FailureModelNotFound,
	"invalid_request_error": models.FailureInvalidRequest,
}

// messageTokens are matched case-insensitively against the failure message, in order
var messageTokens = []struct {
	token string
	kind  models.FailureKind
}{
	{"rate limit", models.FailureRateLimited},
	{"quota", models.FailureQuotaExceeded},
	{"timeout", models.FailureTimeout},
	{"server error", models.FailureServerError},
	{"unavailable", models.FailureUnavailable},
}

// Tag maps the raw shape of a provider failure onto a FailureKind.
// Code is checked first, then HTTP status, then message text.
func Tag(code string, status int, message string) models.FailureKind {
	if kind, ok := retryableCodes[code]; ok {
		return kind
	}

	switch {
	case status == http.StatusTooManyRequests:
		return models.FailureRateLimited
	case status >= http.StatusInternalServerError:
		return models.FailureServerError
	}

	lower := strings.ToLower(message)
	for _, t := range messageTokens {
		if strings.Contains(lower, t.token) {
			return t.kind
		}
	}

	if status >= http.StatusBadRequest {
		return models.FailureRejected
	}
	return models.FailureUnknown
}

// IsRetryable is the total mapping from failure kind to verdict
func IsRetryable(kind models.FailureKind) bool {
	switch kind {
	case models.FailureRateLimited,
		models.FailureQuotaExceeded,
		models.FailureServerError,
		models.FailureTimeout,
		models.FailureModelNotFound,
		models.FailureInvalidRequest,
		models.FailureUnavailable:
		return true
	case models.FailureRejected, models.FailureUnknown:
		return false
	default:
		return false
	}
}

// Reason picks the observability string for a failure: message, else code, else a generic text
func Reason(message, code string) string {
	if message != "" {
		return message
	}
	if code != "" {
		return code
	}
	return unknownReason
}

// Classify produces the verdict for an arbitrary error returned by a gateway
func Classify(err error) models.ClassifiedFailure {
	if err == nil {
		return models.ClassifiedFailure{Kind: models.FailureUnknown, Reason: unknownReason}
	}

	var provErr *models.ProviderError
	if errors.As(err, &provErr) {
		kind := provErr.Kind
		if kind == "" {
			kind = Tag(provErr.Code, provErr.StatusCode, provErr.Message)
		}
		return models.ClassifiedFailure{
			Err:       err,
			Kind:      kind,
			Retryable: IsRetryable(kind),
			Reason:    Reason(provErr.Message, provErr.Code),
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.ClassifiedFailure{
			Err:       err,
			Kind:      models.FailureTimeout,
			Retryable: true,
			Reason:    Reason(err.Error(), "timeout"),
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.ClassifiedFailure{
			Err:       err,
			Kind:      models.FailureTimeout,
			Retryable: true,
			Reason:    Reason(err.Error(), "timeout"),
		}
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		kind := Tag(appErr.Code, appErr.StatusCode, appErr.Message)
		if appErr.Type == models.ErrorTypeCircuitBreaker {
			kind = models.FailureUnavailable
		}
		return models.ClassifiedFailure{
			Err:       err,
			Kind:      kind,
			Retryable: appErr.Retryable || IsRetryable(kind),
			Reason:    Reason(appErr.Message, appErr.Code),
		}
	}

	kind := Tag("", 0, err.Error())
	return models.ClassifiedFailure{
		Err:       err,
		Kind:      kind,
		Retryable: IsRetryable(kind),
		Reason:    Reason(err.Error(), ""),
	}
}
