// Package pkg re-exports the types callers need to configure and talk to an AdaptiveChat server.
package pkg

import "github.com/Egham-7/adaptive-chat/internal/models"

type (
	ServerConfig         = models.ServerConfig
	ProviderConfig       = models.ProviderConfig
	ProviderKind         = models.ProviderKind
	DatabaseConfig       = models.DatabaseConfig
	CircuitBreakerConfig = models.CircuitBreakerConfig
	ContinuationConfig   = models.ContinuationConfig
	RateLimitConfig      = models.RateLimitConfig
	TimeoutConfig        = models.TimeoutConfig
	ModelProfile         = models.ModelProfile
	Message              = models.Message
	Role                 = models.Role
	Document             = models.Document
	Persona              = models.Persona
	GenerateOptions      = models.GenerateOptions
	AIResponse           = models.AIResponse
)

const (
	ProviderKindOpenAI    = models.ProviderKindOpenAI
	ProviderKindAnthropic = models.ProviderKindAnthropic
	ProviderKindGemini    = models.ProviderKindGemini
)
