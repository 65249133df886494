package models

import "fmt"

// TokenParamStyle selects which request field carries the output token limit
type TokenParamStyle string

const (
	// TokenParamMaxTokens sends the legacy max_tokens field
	TokenParamMaxTokens TokenParamStyle = "max_tokens"
	// TokenParamMaxCompletionTokens sends max_completion_tokens (reasoning models)
	TokenParamMaxCompletionTokens TokenParamStyle = "max_completion_tokens"
)

// ReasoningEffort is the optional reasoning budget hint for reasoning models
type ReasoningEffort string

const (
	ReasoningEffortLow    ReasoningEffort = "low"
	ReasoningEffortMedium ReasoningEffort = "medium"
	ReasoningEffortHigh   ReasoningEffort = "high"
)

// Verbosity is the optional answer length hint
type Verbosity string

const (
	VerbosityLow    Verbosity = "low"
	VerbosityMedium Verbosity = "medium"
	VerbosityHigh   Verbosity = "high"
)

// ModelProfile is the immutable configuration of one catalog entry.
// Profiles are built at startup and never mutated afterwards.
type ModelProfile struct {
	Name            string          `json:"name" yaml:"name"`
	ModelID         string          `json:"model_id" yaml:"model_id"`
	MaxOutputTokens int64           `json:"max_output_tokens" yaml:"max_output_tokens"`
	ContextWindow   int64           `json:"context_window,omitzero" yaml:"context_window"`
	Temperature     *float64        `json:"temperature,omitzero" yaml:"temperature,omitempty"`
	TokenParamStyle TokenParamStyle `json:"token_param_style" yaml:"token_param_style"`
	ReasoningEffort ReasoningEffort `json:"reasoning_effort,omitzero" yaml:"reasoning_effort,omitempty"`
	Verbosity       Verbosity       `json:"verbosity,omitzero" yaml:"verbosity,omitempty"`
	SupportsSystem  bool            `json:"supports_system" yaml:"supports_system"`
	Priority        int             `json:"priority" yaml:"priority"`
	Description     string          `json:"description,omitzero" yaml:"description"`
	DeepReasoning   bool            `json:"deep_reasoning,omitzero" yaml:"deep_reasoning,omitempty"`
}

// AlternateSystemRole is the role system messages are rewritten to when the
// profile does not accept the system role.
func (p ModelProfile) AlternateSystemRole() Role {
	return RoleDeveloper
}

// Validate checks a profile loaded from configuration
func (p ModelProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.ModelID == "" {
		return fmt.Errorf("profile %q: model_id is required", p.Name)
	}
	if p.MaxOutputTokens <= 0 {
		return fmt.Errorf("profile %q: max_output_tokens must be positive", p.Name)
	}
	switch p.TokenParamStyle {
	case TokenParamMaxTokens, TokenParamMaxCompletionTokens:
	default:
		return fmt.Errorf("profile %q: unknown token_param_style %q", p.Name, p.TokenParamStyle)
	}
	switch p.ReasoningEffort {
	case "", ReasoningEffortLow, ReasoningEffortMedium, ReasoningEffortHigh:
	default:
		return fmt.Errorf("profile %q: unknown reasoning_effort %q", p.Name, p.ReasoningEffort)
	}
	switch p.Verbosity {
	case "", VerbosityLow, VerbosityMedium, VerbosityHigh:
	default:
		return fmt.Errorf("profile %q: unknown verbosity %q", p.Name, p.Verbosity)
	}
	return nil
}
