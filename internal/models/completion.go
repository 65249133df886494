package models

import (
	"fmt"
	"time"
)

// FinishReason is the provider-reported reason a generation round ended
type FinishReason string

const (
	FinishStop   FinishReason = "stop"
	FinishLength FinishReason = "length"
	FinishOther  FinishReason = "other"
)

// CompletionRequest is one network call sent through a Gateway
type CompletionRequest struct {
	Model           string
	Messages        []Message
	MaxTokens       int64
	TokenParamStyle TokenParamStyle
	Temperature     *float64
	ReasoningEffort ReasoningEffort
	Verbosity       Verbosity
	RequestID       string
}

// CompletionResult is the outcome of one successful network call
type CompletionResult struct {
	Text         string
	FinishReason FinishReason
	TotalTokens  int64
}

// AttemptOutcome is what the continuation engine assembles for one candidate
type AttemptOutcome struct {
	Content      string
	Rounds       int
	TotalTokens  int64
	FinishReason FinishReason
	Elapsed      time.Duration
}

// AttemptStatus is the result of trying one candidate
type AttemptStatus string

const (
	AttemptSucceeded AttemptStatus = "succeeded"
	AttemptFailed    AttemptStatus = "failed"
)

// Attempt records one candidate tried during a generate call
type Attempt struct {
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	Stage     string        `json:"stage"`
	Status    AttemptStatus `json:"status"`
	Reason    string        `json:"reason,omitzero"`
	Retryable bool          `json:"retryable,omitzero"`
}

// AIResponse is the unit returned to callers. It is never mutated after construction.
type AIResponse struct {
	Content            string       `json:"content"`
	ModelUsed          string       `json:"model_used"`
	Provider           string       `json:"provider"`
	FallbackOccurred   bool         `json:"fallback_occurred"`
	FallbackReason     string       `json:"fallback_reason,omitzero"`
	ContinuationRounds int          `json:"continuation_rounds"`
	TotalTokens        int64        `json:"total_tokens"`
	FinishReason       FinishReason `json:"finish_reason"`
	ResponseTimeMs     int64        `json:"response_time_ms"`
	Attempts           []Attempt    `json:"attempts,omitzero"`
}

// GenerateOptions are the caller-supplied knobs of a generate call
type GenerateOptions struct {
	Model     string     `json:"model,omitzero"`
	Persona   Persona    `json:"persona,omitzero"`
	Documents []Document `json:"documents,omitzero"`
	RequestID string     `json:"-"`
}

// GenerateRequest is the HTTP body of the generate endpoint
type GenerateRequest struct {
	Messages []Message `json:"messages"`
	GenerateOptions
}

// Validate checks the shape of a generate request
func (r GenerateRequest) Validate() error {
	if len(r.Messages) == 0 {
		return NewValidationError("messages must not be empty", nil)
	}
	for i, m := range r.Messages {
		switch m.Role {
		case RoleSystem, RoleDeveloper, RoleUser, RoleAssistant:
		default:
			return NewValidationError(fmt.Sprintf("messages[%d]: unknown role %q", i, m.Role), nil)
		}
	}
	for i, d := range r.Documents {
		if d.Text == "" {
			return NewValidationError(fmt.Sprintf("documents[%d]: text must not be empty", i), nil)
		}
	}
	return nil
}
