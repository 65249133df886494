package catalog

import "github.com/Egham-7/adaptive-chat/internal/models"

func temperature(v float64) *float64 { return &v }

// DefaultPrimaryProfiles is the built-in catalog of the primary provider
func DefaultPrimaryProfiles() []models.ModelProfile {
	return []models.ModelProfile{
		{
			Name:            "gpt-5",
			ModelID:         "gpt-5",
			MaxOutputTokens: 32768,
			ContextWindow:   400000,
			TokenParamStyle: models.TokenParamMaxCompletionTokens,
			ReasoningEffort: models.ReasoningEffortHigh,
			Verbosity:       models.VerbosityMedium,
			SupportsSystem:  false,
			Priority:        0,
			Description:     "Deep reasoning model for complex, multi-step questions",
			DeepReasoning:   true,
		},
		{
			Name:            "gpt-5-mini",
			ModelID:         "gpt-5-mini",
			MaxOutputTokens: 16384,
			ContextWindow:   400000,
			TokenParamStyle: models.TokenParamMaxCompletionTokens,
			ReasoningEffort: models.ReasoningEffortMedium,
			Verbosity:       models.VerbosityMedium,
			SupportsSystem:  false,
			Priority:        1,
			Description:     "Smaller reasoning model, faster and cheaper",
		},
		{
			Name:            "gpt-4.1",
			ModelID:         "gpt-4.1",
			MaxOutputTokens: 16384,
			ContextWindow:   1047576,
			Temperature:     temperature(0.7),
			TokenParamStyle: models.TokenParamMaxTokens,
			SupportsSystem:  true,
			Priority:        2,
			Description:     "General purpose model with a long context window",
		},
		{
			Name:            "gpt-4o-mini",
			ModelID:         "gpt-4o-mini",
			MaxOutputTokens: 16384,
			ContextWindow:   128000,
			Temperature:     temperature(0.7),
			TokenParamStyle: models.TokenParamMaxTokens,
			SupportsSystem:  true,
			Priority:        3,
			Description:     "Last resort, lowest latency",
		},
	}
}

// DefaultAggregatorProfiles is the built-in persona catalog of the aggregator provider.
// Profile names are persona identifiers.
func DefaultAggregatorProfiles() []models.ModelProfile {
	return []models.ModelProfile{
		{
			Name:            "creative",
			ModelID:         "anthropic/claude-sonnet-4.5",
			MaxOutputTokens: 8192,
			ContextWindow:   200000,
			Temperature:     temperature(0.9),
			TokenParamStyle: models.TokenParamMaxTokens,
			SupportsSystem:  true,
			Priority:        0,
			Description:     "Long-form writing and brainstorming",
		},
		{
			Name:            "analyst",
			ModelID:         "google/gemini-2.5-pro",
			MaxOutputTokens: 8192,
			ContextWindow:   1048576,
			Temperature:     temperature(0.4),
			TokenParamStyle: models.TokenParamMaxTokens,
			SupportsSystem:  true,
			Priority:        1,
			Description:     "Document analysis over large inputs",
		},
		{
			Name:            "coder",
			ModelID:         "qwen/qwen3-coder",
			MaxOutputTokens: 8192,
			ContextWindow:   262144,
			Temperature:     temperature(0.2),
			TokenParamStyle: models.TokenParamMaxTokens,
			SupportsSystem:  true,
			Priority:        2,
			Description:     "Code generation and review",
		},
		{
			Name:            "fast",
			ModelID:         "meta-llama/llama-3.3-70b-instruct",
			MaxOutputTokens: 4096,
			ContextWindow:   131072,
			Temperature:     temperature(0.7),
			TokenParamStyle: models.TokenParamMaxTokens,
			SupportsSystem:  true,
			Priority:        3,
			Description:     "Quick conversational answers",
		},
	}
}
