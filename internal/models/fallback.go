package models

// DefaultMaxRounds is the continuation round budget per candidate
const DefaultMaxRounds = 5

// DefaultContinuationInstruction is appended as a user turn after a truncated round
const DefaultContinuationInstruction = "Continue exactly from where you stopped. Do not repeat any text you have already written."

// ContinuationConfig controls the continuation engine
type ContinuationConfig struct {
	MaxRounds   int    `json:"max_rounds,omitzero" yaml:"max_rounds,omitempty"`
	Instruction string `json:"instruction,omitzero" yaml:"instruction,omitempty"`
}

// WithDefaults fills unset fields
func (c ContinuationConfig) WithDefaults() ContinuationConfig {
	if c.MaxRounds <= 0 {
		c.MaxRounds = DefaultMaxRounds
	}
	if c.Instruction == "" {
		c.Instruction = DefaultContinuationInstruction
	}
	return c
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool `json:"enabled" yaml:"enabled"`
	FailureThreshold int  `json:"failure_threshold,omitzero" yaml:"failure_threshold,omitempty"` // Number of failures before opening circuit
	SuccessThreshold int  `json:"success_threshold,omitzero" yaml:"success_threshold,omitempty"` // Number of successes to close circuit
	TimeoutMs        int  `json:"timeout_ms,omitzero" yaml:"timeout_ms,omitempty"`               // Time the circuit stays open before a probe
	ResetAfterMs     int  `json:"reset_after_ms,omitzero" yaml:"reset_after_ms,omitempty"`
}

// RoutingConfig names the configured providers playing each role
type RoutingConfig struct {
	PrimaryProvider    string `json:"primary_provider" yaml:"primary_provider"`
	AggregatorProvider string `json:"aggregator_provider,omitzero" yaml:"aggregator_provider,omitempty"`
}

// CatalogsConfig optionally overrides the built-in model catalogs
type CatalogsConfig struct {
	Primary    []ModelProfile `json:"primary,omitzero" yaml:"primary,omitempty"`
	Aggregator []ModelProfile `json:"aggregator,omitzero" yaml:"aggregator,omitempty"`
}

// RedisConfig holds configuration for Redis
type RedisConfig struct {
	URL string `json:"url,omitzero" yaml:"url"`
}
